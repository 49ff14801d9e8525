package insights

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/domain/ledger"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

// GetChartDataInput represents the input for getting chart data.
type GetChartDataInput struct {
	QueryInput
}

// GetChartDataOutput represents the output of getting chart data.
type GetChartDataOutput struct {
	Months []entity.MonthKey
	Rows   []valueobject.ChartData
}

// GetChartDataUseCase handles computing the budget chart rows of a selection.
type GetChartDataUseCase struct {
	ledgerRepo adapter.LedgerRepository
	workers    int
}

// NewGetChartDataUseCase creates a new GetChartDataUseCase instance. workers
// bounds the number of rows computed concurrently; zero uses GOMAXPROCS.
func NewGetChartDataUseCase(ledgerRepo adapter.LedgerRepository, workers int) *GetChartDataUseCase {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &GetChartDataUseCase{
		ledgerRepo: ledgerRepo,
		workers:    workers,
	}
}

// Execute computes one row per charted category and, for every selected
// group, its member rows followed by the group total row. Rows come back in
// the same order as a sequential computation.
func (uc *GetChartDataUseCase) Execute(ctx context.Context, input GetChartDataInput) (*GetChartDataOutput, error) {
	q, err := BuildQuery(input.QueryInput)
	if err != nil {
		return nil, err
	}

	l, err := loadLedger(ctx, uc.ledgerRepo, input.UserID, q)
	if err != nil {
		return nil, err
	}

	selected := ledger.Collect(ledger.Select(l, q))
	categories := ledger.ChartCategories(l, q, selected)
	var groups []*entity.CategoryGroup
	for _, id := range q.GroupIDs {
		if g, ok := l.Group(id); ok {
			groups = append(groups, g)
		}
	}

	// Each task writes its own slot; the snapshot is read-only.
	slots := make([][]valueobject.ChartData, len(categories)+len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, c := range categories {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = []valueobject.ChartData{ledger.CategoryChartRow(l, c, q.Months, selected)}
			return nil
		})
	}
	for i, group := range groups {
		slot := len(categories) + i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[slot] = ledger.GroupChart(l, group, q.Months, selected)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]valueobject.ChartData, 0, len(slots))
	for _, s := range slots {
		rows = append(rows, s...)
	}
	return &GetChartDataOutput{
		Months: q.Months,
		Rows:   rows,
	}, nil
}
