package insights

import (
	"context"

	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/domain/ledger"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

// GetCumulativeTotalsInput represents the input for getting cumulative totals.
// The query must select exactly one month.
type GetCumulativeTotalsInput struct {
	QueryInput
	Metric string
}

// GetCumulativeTotalsOutput represents the output of getting cumulative totals.
type GetCumulativeTotalsOutput struct {
	Month  entity.MonthKey
	Metric ledger.Metric
	Totals []valueobject.CumulativeTotal
}

// GetCumulativeTotalsUseCase handles computing the running totals of a month.
type GetCumulativeTotalsUseCase struct {
	ledgerRepo adapter.LedgerRepository
}

// NewGetCumulativeTotalsUseCase creates a new GetCumulativeTotalsUseCase instance.
func NewGetCumulativeTotalsUseCase(ledgerRepo adapter.LedgerRepository) *GetCumulativeTotalsUseCase {
	return &GetCumulativeTotalsUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// Execute accumulates the metric over the selected transactions of the month.
// Only days with activity have an entry.
func (uc *GetCumulativeTotalsUseCase) Execute(ctx context.Context, input GetCumulativeTotalsInput) (*GetCumulativeTotalsOutput, error) {
	metric, err := ParseMetric(input.Metric)
	if err != nil {
		return nil, err
	}
	q, err := BuildQuery(input.QueryInput)
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

	selected := ledger.Collect(ledger.Select(l, q))
	totals := ledger.CumulativeTotals(l.Month(month), l.Location, selected, metric, nil)

	return &GetCumulativeTotalsOutput{
		Month:  month,
		Metric: metric,
		Totals: totals,
	}, nil
}
