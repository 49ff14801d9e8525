// Package main is the entry point for the insights API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/finance-tracker/insights/config"
	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/infra/cache"
	"github.com/finance-tracker/insights/internal/infra/db"
	"github.com/finance-tracker/insights/internal/infra/dependency"
	changesignal "github.com/finance-tracker/insights/internal/integration/signal"
)

func main() {
	// Load .env file if it exists (development only)
	_ = godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(cfg.Log.NewLogger())

	slog.Info("Starting insights API",
		"environment", cfg.Server.Environment,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	loc, err := cfg.Analytics.Location()
	if err != nil {
		slog.Error("Invalid analytics timezone", "error", err)
		os.Exit(1)
	}

	database, err := db.NewConnection(&cfg.Database)
	if err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(); err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("Database migrations completed successfully")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	sources, signalHealth, closeSignals := changeSources(ctx, cfg)
	defer closeSignals()

	injector := dependency.NewInjector(cfg, database.DB(), dependency.Options{
		Location:            loc,
		SignalHealthChecker: signalHealth,
	})
	defer injector.Registry.Close()

	for name, source := range sources {
		go func() {
			err := injector.Registry.Watch(ctx, source)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Ledger change watcher stopped", "source", name, "error", err)
			}
		}()
	}

	go injector.RateLimiter.RunCleanup(time.Minute, ctx.Done())

	engine := injector.Router.Setup(cfg.Server.Environment)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     engine,
		ReadTimeout: cfg.Server.ReadTimeout,
		// Event streams stay open for the whole computation.
		WriteTimeout: 0,
	}

	go func() {
		slog.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	stop()
	// Closing the sessions ends open event streams so Shutdown can drain.
	injector.Registry.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited properly")
}

// changeSources connects the enabled ledger change signals. A signal that
// cannot connect is logged and skipped so the API still serves one-shot
// queries.
func changeSources(ctx context.Context, cfg *config.Config) (map[string]adapter.ChangeSource, func() bool, func()) {
	sources := make(map[string]adapter.ChangeSource)
	var healthCheck func() bool
	var closers []func()

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			slog.Warn("Redis change signal unavailable", "error", err)
		} else {
			sources["redis"] = changesignal.NewRedisChangeSource(client, cfg.Redis.ChangeChannel)
			healthCheck = cache.HealthChecker(client)
			closers = append(closers, func() { _ = client.Close() })
		}
	}

	if cfg.AMQP.Enabled {
		client, err := changesignal.NewAMQPClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue)
		if err != nil {
			slog.Warn("AMQP change signal unavailable", "error", err)
		} else {
			sources["amqp"] = client
			closers = append(closers, func() { _ = client.Close() })
		}
	}

	if len(sources) == 0 {
		slog.Info("No ledger change signal enabled, sessions recompute on request only")
	}

	return sources, healthCheck, func() {
		for _, c := range closers {
			c()
		}
	}
}
