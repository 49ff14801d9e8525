package signal

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/finance-tracker/insights/internal/application/adapter"
)

const subscriberBuffer = 8

// Broadcaster is an in-process ChangeSource and ChangePublisher. A change is
// dropped for a subscriber whose buffer is full: that subscriber already has
// a recompute pending.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[chan adapter.LedgerChange]uuid.UUID
	closed      bool
}

// NewBroadcaster creates a broadcaster without subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan adapter.LedgerChange]uuid.UUID),
	}
}

// Changes subscribes to the changes of userID until ctx is done.
func (b *Broadcaster) Changes(ctx context.Context, userID uuid.UUID) (<-chan adapter.LedgerChange, error) {
	ch := make(chan adapter.LedgerChange, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, nil
	}
	b.subscribers[ch] = userID
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(ch)
	}()
	return ch, nil
}

// Publish delivers the change to every matching subscriber.
func (b *Broadcaster) Publish(_ context.Context, change adapter.LedgerChange) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch, userID := range b.subscribers {
		if !matches(userID, change) {
			continue
		}
		select {
		case ch <- change:
		default:
		}
	}
	return nil
}

// Close closes every subscription.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, ch)
	}
}

func (b *Broadcaster) remove(ch chan adapter.LedgerChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}
