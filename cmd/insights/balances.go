package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/application/usecase/insights"
)

func balancesCmd() *cobra.Command {
	var userID, month, scope string
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Print the end-of-day balances of a month",
		Long: `Print the closing balance of every day of a month for the accounts of a
scope. The balance carried into the month includes every earlier
transaction.`,
		Example: `  insights balances --user 6f1c... --month 2025-01 --scope account:3a9d...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, closeFn, err := openRepository()
			if err != nil {
				return err
			}
			defer closeFn()

			return runBalances(cmd.Context(), cmd.OutOrStdout(), repo, userID, month, scope)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID (required)")
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (required)")
	cmd.Flags().StringVar(&scope, "scope", "all", "account scope (all, unified_debit, unified_credit, account:<id>)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("month")

	return cmd
}

func runBalances(ctx context.Context, out io.Writer, repo adapter.LedgerRepository, rawUserID, month, scope string) error {
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %w", rawUserID, err)
	}

	output, err := insights.NewGetBalancesUseCase(repo).Execute(ctx, insights.GetBalancesInput{
		UserID: userID,
		Month:  month,
		Scope:  scope,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, titleStyle.Render("Balances for "+output.Month.String()+" ("+output.Scope.String()+")"))
	fmt.Fprintf(out, "Starting balance: %s\n\n", money(output.StartingBalance))
	return renderBalances(out, output.Balances)
}
