package signal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/finance-tracker/insights/internal/application/adapter"
)

// RedisChangePublisher publishes ledger changes on a redis pub/sub channel.
type RedisChangePublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisChangePublisher creates a publisher for the channel.
func NewRedisChangePublisher(client *redis.Client, channel string) *RedisChangePublisher {
	return &RedisChangePublisher{client: client, channel: channel}
}

// Publish sends the change to every subscriber of the channel.
func (p *RedisChangePublisher) Publish(ctx context.Context, change adapter.LedgerChange) error {
	body, err := NewLedgerChangedMessage(change).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
		return fmt.Errorf("publish ledger change: %w", err)
	}
	return nil
}

// RedisChangeSource receives ledger changes from a redis pub/sub channel.
type RedisChangeSource struct {
	client  *redis.Client
	channel string
}

// NewRedisChangeSource creates a source for the channel.
func NewRedisChangeSource(client *redis.Client, channel string) *RedisChangeSource {
	return &RedisChangeSource{client: client, channel: channel}
}

// Changes subscribes to the channel and forwards the changes of userID until
// ctx is done. The subscription is confirmed before Changes returns.
func (s *RedisChangeSource) Changes(ctx context.Context, userID uuid.UUID) (<-chan adapter.LedgerChange, error) {
	pubsub := s.client.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", s.channel, err)
	}

	out := make(chan adapter.LedgerChange, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				decoded, err := LedgerChangedMessageFromJSON([]byte(msg.Payload))
				if err != nil {
					slog.Warn("Ignoring malformed ledger change", "channel", s.channel, "error", err.Error())
					continue
				}
				change := decoded.Change()
				if !matches(userID, change) {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
