// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/finance-tracker/insights/internal/domain/entity"
)

// LedgerRepository defines the interface for loading ledger snapshots.
type LedgerRepository interface {
	// LoadLedger builds a read-only snapshot of everything the user can see:
	// accounts owned by or shared with the user, categories, groups, the
	// budgets of the given months, every transaction of the scoped accounts up
	// to the end of the latest month, and the related legs of paired
	// transactions even when they fall outside that range.
	LoadLedger(ctx context.Context, userID uuid.UUID, months []entity.MonthKey) (*entity.Ledger, error)
}
