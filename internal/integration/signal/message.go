// Package signal delivers ledger-changed notifications between the services
// that write ledgers and the insights sessions that must recompute.
package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/insights/internal/application/adapter"
)

var errMissingUserID = errors.New("ledger changed message without user_id")

// LedgerChangedMessage is the wire format of a ledger change.
type LedgerChangedMessage struct {
	UserID    uuid.UUID `json:"user_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewLedgerChangedMessage creates a message from a change.
func NewLedgerChangedMessage(change adapter.LedgerChange) *LedgerChangedMessage {
	changedAt := change.ChangedAt
	if changedAt.IsZero() {
		changedAt = time.Now().UTC()
	}
	return &LedgerChangedMessage{UserID: change.UserID, ChangedAt: changedAt}
}

// ToJSON encodes the message.
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Change returns the change the message carries.
func (m *LedgerChangedMessage) Change() adapter.LedgerChange {
	return adapter.LedgerChange{UserID: m.UserID, ChangedAt: m.ChangedAt}
}

// LedgerChangedMessageFromJSON decodes and validates a message.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var m LedgerChangedMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal ledger changed message: %w", err)
	}
	if m.UserID == uuid.Nil {
		return nil, errMissingUserID
	}
	return &m, nil
}

// matches reports whether a change is addressed to a subscriber of userID.
// uuid.Nil subscribes to every user.
func matches(userID uuid.UUID, change adapter.LedgerChange) bool {
	return userID == uuid.Nil || userID == change.UserID
}
