package insights

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/domain/ledger"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

// GetBalancesInput represents the input for getting end-of-day balances.
// Exactly one month must be given.
type GetBalancesInput struct {
	UserID uuid.UUID
	Month  string
	Scope  string
}

// GetBalancesOutput represents the output of getting end-of-day balances.
type GetBalancesOutput struct {
	Month           entity.MonthKey
	Scope           valueobject.AccountScope
	StartingBalance decimal.Decimal
	Balances        []valueobject.DayBalance
}

// GetBalancesUseCase handles computing the end-of-day balances of a month.
type GetBalancesUseCase struct {
	ledgerRepo adapter.LedgerRepository
}

// NewGetBalancesUseCase creates a new GetBalancesUseCase instance.
func NewGetBalancesUseCase(ledgerRepo adapter.LedgerRepository) *GetBalancesUseCase {
	return &GetBalancesUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// Execute walks the month day by day and returns the closing balance of the
// scoped accounts for every day.
func (uc *GetBalancesUseCase) Execute(ctx context.Context, input GetBalancesInput) (*GetBalancesOutput, error) {
	q, err := BuildQuery(QueryInput{
		UserID: input.UserID,
		Months: []string{input.Month},
		Scope:  input.Scope,
	})
	if err != nil {
		return nil, err
	}
	month, err := singleMonth(q)
	if err != nil {
		return nil, err
	}

	l, err := loadLedger(ctx, uc.ledgerRepo, input.UserID, q)
	if err != nil {
		return nil, err
	}

	book := ledger.NewBalanceBook(l, q.Scope)
	start := ledger.StartingBalance(l, book, month)

	return &GetBalancesOutput{
		Month:           month,
		Scope:           q.Scope,
		StartingBalance: start,
		Balances:        ledger.EndOfDayTotals(l.Month(month), book, start, nil),
	}, nil
}
