package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mantaflow/mantaflow/internal/activity"
	"github.com/mantaflow/mantaflow/internal/config"
	"github.com/mantaflow/mantaflow/internal/domain"
	"github.com/mantaflow/mantaflow/internal/handler"
	"github.com/mantaflow/mantaflow/internal/logging"
	"github.com/mantaflow/mantaflow/internal/observability"
	"github.com/mantaflow/mantaflow/internal/repository/memory"
	"github.com/mantaflow/mantaflow/internal/repository/sqlite"
	"github.com/mantaflow/mantaflow/internal/service"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cfg, cfgErr := config.FromEnv(os.Getenv)
	if cfg == nil {
		cfg = &config.Config{}
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfgErr != nil {
				return cfgErr
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cfg.BindFlags(cmd.Flags())

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.Setup("mantaflow", cfg.LogFormat, level, os.Stdout, os.Stderr)
	slog.SetDefault(logger)

	accountRepo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	metrics := observability.NewMetrics()
	hub := activity.NewHub(activity.WithGauge(metrics.ActivitySubscribers))

	accountOpts := []service.AccountOption{service.WithAccountActivity(hub)}
	if cfg.DemoAccount {
		accountOpts = append(accountOpts, service.WithDemoAccount())
	}
	accounts, err := service.NewAccountService(accountRepo, cfg.BcryptCost, accountOpts...)
	if err != nil {
		return fmt.Errorf("create account service: %w", err)
	}
	sessions := service.NewSessionIssuer(accounts, cfg.Secret,
		service.WithSessionTTL(cfg.SessionTTL),
		service.WithSessionActivity(hub),
	)

	// A zero rate disables limiting.
	var limiter *service.TokenBucket
	if cfg.RateLimit > 0 {
		limiter = service.NewTokenBucket(ctx, cfg.RateLimit, float64(cfg.RateBurst))
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Deps{
		Accounts:     accounts,
		Sessions:     sessions,
		Activity:     hub,
		Metrics:      metrics,
		Limiter:      limiter,
		CookieSecure: cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.RequestID(handler.SecurityHeaders(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.Store, "demo_account", cfg.DemoAccount)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// openStore returns the configured account repository and a cleanup func.
func openStore(ctx context.Context, cfg *config.Config) (domain.AccountRepository, func(), error) {
	if cfg.Store != config.StoreSQLite {
		return memory.NewAccountRepository(), func() {}, nil
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	closeDB := closer(db)
	if err := db.Migrate(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied", "path", cfg.DatabasePath)

	return db.Accounts(), closeDB, nil
}

func closer(db domain.Database) func() {
	return func() {
		if err := db.Close(); err != nil {
			slog.Error("close database", "error", err)
		}
	}
}
