package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LedgerChange notifies that a user's ledger changed.
type LedgerChange struct {
	UserID    uuid.UUID `json:"user_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// ChangeSource delivers ledger-changed signals.
type ChangeSource interface {
	// Changes returns a channel of changes for the given user. uuid.Nil
	// subscribes to every user. The channel is closed when ctx is done or the
	// source shuts down.
	Changes(ctx context.Context, userID uuid.UUID) (<-chan LedgerChange, error)
}

// ChangePublisher emits ledger-changed signals.
type ChangePublisher interface {
	// Publish notifies subscribers that the user's ledger changed.
	Publish(ctx context.Context, change LedgerChange) error
}
