package insights

import (
	"context"

	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/domain/ledger"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

// GetSummaryInput represents the input for getting the insights summary.
type GetSummaryInput struct {
	QueryInput
}

// GetSummaryOutput represents the output of getting the insights summary.
type GetSummaryOutput struct {
	Months  []entity.MonthKey
	Scope   valueobject.AccountScope
	Summary valueobject.Summary
	Totals  valueobject.Totals
}

// GetSummaryUseCase handles computing the summary of a selection.
type GetSummaryUseCase struct {
	ledgerRepo adapter.LedgerRepository
}

// NewGetSummaryUseCase creates a new GetSummaryUseCase instance.
func NewGetSummaryUseCase(ledgerRepo adapter.LedgerRepository) *GetSummaryUseCase {
	return &GetSummaryUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// Execute computes totals and the summary record for the query.
func (uc *GetSummaryUseCase) Execute(ctx context.Context, input GetSummaryInput) (*GetSummaryOutput, error) {
	q, err := BuildQuery(input.QueryInput)
	if err != nil {
		return nil, err
	}

	l, err := loadLedger(ctx, uc.ledgerRepo, input.UserID, q)
	if err != nil {
		return nil, err
	}

	selected := ledger.Collect(ledger.Select(l, q))
	totals := ledger.Totals(ledger.Filter(selected, ledger.All))
	summary := ledger.Summarize(totals, ledger.Chart(l, q, selected))

	return &GetSummaryOutput{
		Months:  q.Months,
		Scope:   q.Scope,
		Summary: summary,
		Totals:  totals,
	}, nil
}
