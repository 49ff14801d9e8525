// Package main is the insights command line tool. It computes summaries,
// budget charts and balances straight from the ledger database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/finance-tracker/insights/config"
	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/infra/db"
	"github.com/finance-tracker/insights/internal/integration/persistence"
)

var (
	cfg     *config.Config
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "insights",
		Short: "Budget and balance insights for a finance ledger",
		Long: `insights computes spending summaries, budget charts, end-of-day balances
and cumulative totals for one user's ledger.

Database settings come from the environment (DB_DRIVER, DATABASE_URL) and
can be overridden with flags.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	// Load .env file if it exists (development only)
	_ = godotenv.Load()
	cfg = config.Load()

	rootCmd.PersistentFlags().StringVar(&cfg.Database.Driver, "db-driver", cfg.Database.Driver, "database driver (postgres, sqlite)")
	rootCmd.PersistentFlags().StringVar(&cfg.Database.URL, "db-url", cfg.Database.URL, "database URL or sqlite file")
	rootCmd.PersistentFlags().StringVar(&cfg.Analytics.Timezone, "timezone", cfg.Analytics.Timezone, "timezone of month and day boundaries")
	rootCmd.PersistentFlags().StringVar(&cfg.Log.Level, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&cfg.Log.Format, "log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(balancesCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	slog.SetDefault(cfg.Log.NewLogger())
	if _, err := cfg.Analytics.Location(); err != nil {
		return err
	}
	return nil
}

// openRepository connects to the configured database and returns the ledger
// repository with a function releasing the connection.
func openRepository() (adapter.LedgerRepository, func(), error) {
	loc, err := cfg.Analytics.Location()
	if err != nil {
		return nil, nil, err
	}

	database, err := db.NewConnection(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	closeFn := func() {
		if err := database.Close(); err != nil {
			slog.Error("failed to close storage", "error", err)
		}
	}
	return persistence.NewLedgerRepository(database.DB(), loc), closeFn, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "insights", version)
		},
	}
}
