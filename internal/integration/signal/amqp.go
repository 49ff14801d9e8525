package signal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"github.com/finance-tracker/insights/internal/application/adapter"
)

// AMQPClient publishes and consumes ledger changes through a durable queue
// bound to a direct exchange.
type AMQPClient struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

// NewAMQPClient dials the broker and declares the exchange and queue.
func NewAMQPClient(url, exchangeName, queueName string) (*AMQPClient, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &AMQPClient{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *AMQPClient) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// Publish sends a persistent ledger changed message.
func (c *AMQPClient) Publish(ctx context.Context, change adapter.LedgerChange) error {
	body, err := NewLedgerChangedMessage(change).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Changes consumes the queue and forwards the changes of userID until ctx is
// done. Malformed messages are rejected without requeue; every other delivery
// is acknowledged once forwarded.
func (c *AMQPClient) Changes(ctx context.Context, userID uuid.UUID) (<-chan adapter.LedgerChange, error) {
	deliveries, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return nil, fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming ledger changes", "queue", c.queueName)

	out := make(chan adapter.LedgerChange, subscriberBuffer)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				slog.InfoContext(ctx, "Stopping ledger change consumption", "reason", ctx.Err())
				return
			case delivery, ok := <-deliveries:
				if !ok {
					slog.Warn("AMQP delivery channel closed", "queue", c.queueName)
					return
				}
				c.forward(ctx, delivery, userID, out)
			}
		}
	}()
	return out, nil
}

func (c *AMQPClient) forward(ctx context.Context, delivery amqp091.Delivery, userID uuid.UUID, out chan<- adapter.LedgerChange) {
	msg, err := LedgerChangedMessageFromJSON(delivery.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal ledger change", "error", err)
		_ = delivery.Nack(false, false)
		return
	}

	change := msg.Change()
	if matches(userID, change) {
		select {
		case out <- change:
		case <-ctx.Done():
			_ = delivery.Nack(false, true)
			return
		}
	}
	_ = delivery.Ack(false)
}

// Close closes the channel and the connection.
func (c *AMQPClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
