package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/application/usecase/insights"
	"github.com/finance-tracker/insights/internal/application/usecase/recompute"
	"github.com/finance-tracker/insights/internal/domain/entity"
	"github.com/finance-tracker/insights/internal/domain/ledger"
	"github.com/finance-tracker/insights/internal/domain/valueobject"
)

type reportOptions struct {
	userID        string
	months        []string
	categories    []string
	groups        []string
	scope         string
	metric        string
	uncategorized bool
	quiet         bool
}

func reportCmd() *cobra.Command {
	opts := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the summary and budget chart of a selection",
		Long: `Compute the summary, the budget chart rows, the end-of-day balances and
the cumulative totals of the selected months.

Balances and cumulative totals cover the latest selected month. Progress is
shown while the computation runs.`,
		Example: `  insights report --user 6f1c... --months 2024-12,2025-01 --scope unified_debit
  insights report --user 6f1c... --months 2025-01 --group 0b7e...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, closeFn, err := openRepository()
			if err != nil {
				return err
			}
			defer closeFn()

			return runReport(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), repo, opts)
		},
	}

	cmd.Flags().StringVar(&opts.userID, "user", "", "user ID (required)")
	cmd.Flags().StringSliceVar(&opts.months, "months", nil, "months as YYYY-MM (required)")
	cmd.Flags().StringSliceVar(&opts.categories, "category", nil, "category IDs to chart, none for uncategorized")
	cmd.Flags().StringSliceVar(&opts.groups, "group", nil, "category group IDs to chart")
	cmd.Flags().StringVar(&opts.scope, "scope", "all", "account scope (all, unified_debit, unified_credit, account:<id>)")
	cmd.Flags().StringVar(&opts.metric, "metric", "spend", "cumulative metric (spend, income, net)")
	cmd.Flags().BoolVar(&opts.uncategorized, "uncategorized", false, "include uncategorized transactions")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "hide the progress bar")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("months")

	return cmd
}

// runReport computes the report through a recompute controller so progress
// can be rendered while it runs.
func runReport(ctx context.Context, out, progressOut io.Writer, repo adapter.LedgerRepository, opts *reportOptions) error {
	userID, err := uuid.Parse(opts.userID)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %w", opts.userID, err)
	}
	metric, err := insights.ParseMetric(opts.metric)
	if err != nil {
		return err
	}
	query, err := insights.BuildQuery(insights.QueryInput{
		UserID:               userID,
		Months:               opts.months,
		CategoryIDs:          opts.categories,
		GroupIDs:             opts.groups,
		IncludeUncategorized: opts.uncategorized,
		Scope:                opts.scope,
	})
	if err != nil {
		return err
	}

	controller := recompute.NewController(uuid.New(), recompute.DefaultBufferSize)
	defer controller.Close()

	events, unsubscribe := controller.Subscribe()
	defer unsubscribe()

	load := func(ctx context.Context) (*entity.Ledger, error) {
		return repo.LoadLedger(ctx, userID, query.Months)
	}
	gen, err := controller.StartLoad(load, recompute.Request{
		Query:   query,
		Options: ledger.ComputeOptions{Metric: metric},
	})
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if !opts.quiet {
		bar = newProgressBar(progressOut)
	}

	result, err := awaitResult(ctx, events, gen, bar)
	if err != nil {
		return err
	}

	focus, _ := ledger.FocusMonth(query.Months)
	return renderReport(out, query, focus, metric, result)
}

// awaitResult follows the events of run gen until it finishes or fails.
func awaitResult(ctx context.Context, events <-chan recompute.Event, gen uint64, bar *progressbar.ProgressBar) (*valueobject.Insights, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil, fmt.Errorf("computation closed before finishing")
			}
			if ev.Generation != gen {
				continue
			}
			switch ev.Kind {
			case recompute.EventProgress:
				updateProgress(bar, ev)
			case recompute.EventFinished:
				finishProgress(bar)
				return ev.Result, nil
			case recompute.EventFailed:
				return nil, ev.Err
			}
		}
	}
}
