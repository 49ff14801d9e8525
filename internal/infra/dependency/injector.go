// Package dependency provides dependency injection for the application.
package dependency

import (
	"time"

	"gorm.io/gorm"

	"github.com/finance-tracker/insights/config"
	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/application/usecase/insights"
	"github.com/finance-tracker/insights/internal/application/usecase/recompute"
	"github.com/finance-tracker/insights/internal/infra/server/router"
	"github.com/finance-tracker/insights/internal/integration/entrypoint/controller"
	"github.com/finance-tracker/insights/internal/integration/entrypoint/middleware"
	"github.com/finance-tracker/insights/internal/integration/persistence"
)

// Injector holds all application dependencies.
type Injector struct {
	Config      *config.Config
	DB          *gorm.DB
	LedgerRepo  adapter.LedgerRepository
	Registry    *recompute.Registry
	RateLimiter *middleware.RateLimiter
	Router      *router.Router
}

// Options carries the optional dependencies of the injector.
type Options struct {
	// Location evaluates month and day boundaries; nil means UTC.
	Location *time.Location
	// SignalHealthChecker reports the change signal connection; nil when disabled.
	SignalHealthChecker func() bool
}

// NewInjector creates a new dependency injector with all dependencies wired.
func NewInjector(cfg *config.Config, db *gorm.DB, opts Options) *Injector {
	// Create repositories
	ledgerRepo := persistence.NewLedgerRepository(db, opts.Location)

	// Create insights use cases
	getSummaryUseCase := insights.NewGetSummaryUseCase(ledgerRepo)
	getChartDataUseCase := insights.NewGetChartDataUseCase(ledgerRepo, cfg.Analytics.Workers)
	getBalancesUseCase := insights.NewGetBalancesUseCase(ledgerRepo)
	getCumulativeTotalsUseCase := insights.NewGetCumulativeTotalsUseCase(ledgerRepo)

	// Create recompute sessions
	registry := recompute.NewRegistry(ledgerRepo, cfg.Analytics.ProgressBuffer)

	// Create controllers
	healthController := controller.NewHealthController(func() bool {
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, opts.SignalHealthChecker, registry.Len)

	insightsController := controller.NewInsightsController(
		getSummaryUseCase,
		getChartDataUseCase,
		getBalancesUseCase,
		getCumulativeTotalsUseCase,
	)
	sessionController := controller.NewSessionController(registry)

	// Create middleware
	recomputeRateLimiter := middleware.NewRateLimiterWithConfig(
		cfg.Analytics.RecomputeRateLimit,
		cfg.Analytics.RecomputeRateLimitWindow,
	)

	r := router.NewRouter(
		healthController,
		insightsController,
		sessionController,
		recomputeRateLimiter,
	)

	return &Injector{
		Config:      cfg,
		DB:          db,
		LedgerRepo:  ledgerRepo,
		Registry:    registry,
		RateLimiter: recomputeRateLimiter,
		Router:      r,
	}
}
