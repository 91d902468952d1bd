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

	"github.com/nyashahama/furniture-taxi-leads/internal/api"
	"github.com/nyashahama/furniture-taxi-leads/internal/config"
	"github.com/nyashahama/furniture-taxi-leads/internal/db"
	"github.com/nyashahama/furniture-taxi-leads/internal/email"
	"github.com/nyashahama/furniture-taxi-leads/internal/events"
	"github.com/nyashahama/furniture-taxi-leads/internal/grants"
	"github.com/nyashahama/furniture-taxi-leads/internal/metrics"
	"github.com/nyashahama/furniture-taxi-leads/internal/notify"
	"github.com/nyashahama/furniture-taxi-leads/internal/quote"
	"github.com/nyashahama/furniture-taxi-leads/internal/store"
	"github.com/nyashahama/furniture-taxi-leads/internal/worker"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port, "db_driver", cfg.DBDriver)

	// Root context cancelled by OS signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Database ──────────────────────────────────────────────────────────────
	dialect, err := db.ParseDialect(cfg.DBDriver)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	st, err := store.Open(ctx, dialect, cfg.DatabaseURL, store.Options{AutoMigrate: cfg.DBAutoMigrate})
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("database close", "error", err)
		}
	}()
	logger.Info("database connected", "migrated", cfg.DBAutoMigrate)

	if cfg.GrantsSeedFile != "" {
		n, err := st.ImportGrantsFile(ctx, cfg.GrantsSeedFile)
		if err != nil {
			return fmt.Errorf("seed grants: %w", err)
		}
		logger.Info("grants imported", "file", cfg.GrantsSeedFile, "rows", n)
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	m := metrics.New()

	// ── Background work ───────────────────────────────────────────────────────
	// Events are written detached from the request that triggered them. The
	// runner drains in-flight writes during shutdown.
	runner := worker.NewRunner(worker.RunnerConfig{TaskTimeout: cfg.EventTimeout}, logger)

	sessions := events.NewMemorySessionStore(cfg.SessionTTL)
	go sessions.RunJanitor(ctx, cfg.SessionTTL/4)

	eventLog := events.NewLogger(st.Q(), sessions, runner, m, logger)

	// ── Domain services ───────────────────────────────────────────────────────
	resolver := grants.NewResolver(st.Q(), eventLog, m, logger)

	estimator := quote.NewEstimator(
		quote.NewClient(cfg.WidgetBaseURL, cfg.WidgetKey, nil),
		m,
	)

	mailer := email.NewResendClient(cfg.ResendAPIKey, cfg.EmailFromAddr, cfg.EmailFromName)
	dispatcher := notify.NewDispatcher(mailer, notify.Config{
		AdminEmail:   cfg.AdminEmail,
		SupportEmail: cfg.SupportEmail,
	}, m, logger)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(
		resolver,
		eventLog,
		estimator,
		dispatcher,
		m,
		api.Config{
			Env:            cfg.Env,
			AllowedOrigins: cfg.AllowedOrigins,
			RequestTimeout: cfg.RequestTimeout,
		},
		logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the HTTP server in a background goroutine.
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until either a signal arrives or the server dies unexpectedly.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// No request can schedule new events now; wait for the ones in flight
	// before the store closes.
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.Warn("event writes still running at shutdown", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
