// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/sharkteam/sharkteam/internal/account"
	"github.com/sharkteam/sharkteam/internal/config"
	"github.com/sharkteam/sharkteam/internal/logging"
	"github.com/sharkteam/sharkteam/internal/observability"
	"github.com/sharkteam/sharkteam/internal/session"
	"github.com/sharkteam/sharkteam/internal/store"
	"github.com/sharkteam/sharkteam/internal/web"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the account API",
		Long: `Serve the account API until SIGINT or SIGTERM. With the postgres
store, pending migrations are applied first unless store.auto_migrate is false.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServeWithDeps(ctx, cfg, cmd, nil)
		},
	}
}

// runServeWithDeps runs the service until ctx is cancelled or a server fails.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.UserStoreFactory == nil {
		deps.UserStoreFactory = openUserStore
	}
	if deps.SessionRegistryFactory == nil {
		deps.SessionRegistryFactory = openSessionRegistry
	}
	if deps.MigratorFactory == nil {
		deps.MigratorFactory = func(url string) (AutoMigrator, error) {
			return store.NewMigrator(url)
		}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, probes []observability.Probe, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, ready,
				observability.WithLogger(logger),
				observability.WithProbes(probes...),
			)
		}
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.SetDefault("sharkteam", version, cfg.Log.Format, level)
	logger.Info("starting sharkteam",
		"http_addr", cfg.HTTP.Addr,
		"store", cfg.Store.Driver,
		"sessions", cfg.Session.Backend,
	)

	if cfg.Store.Driver == config.DriverPostgres && cfg.Store.AutoMigrate {
		if err := runAutoMigration(cfg.Database.URL, deps.MigratorFactory, logger); err != nil {
			return err
		}
	}

	users, closeUsers, err := deps.UserStoreFactory(ctx, cfg, logger)
	if err != nil {
		return oops.With("operation", "open credential store").Wrap(err)
	}
	defer closeUsers()

	sessions, closeSessions, err := deps.SessionRegistryFactory(ctx, cfg, logger)
	if err != nil {
		return oops.With("operation", "open session registry").Wrap(err)
	}
	defer closeSessions()

	hasher, err := account.NewArgon2idHasherWithParams(cfg.Hasher)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ready atomic.Bool
	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, ready.Load, readinessProbes(users, sessions), logger)
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability", logger)
		metrics = obsServer.Metrics()
		if counter, ok := sessions.(session.Counter); ok {
			metrics.TrackSessions(counter.Len)
		}
	}

	svc, err := account.NewService(users, sessions, hasher,
		account.WithLogger(logger),
		account.WithEventRecorder(metrics),
	)
	if err != nil {
		return err
	}

	api, err := web.NewServer(web.Config{
		Addr:              cfg.HTTP.Addr,
		CookieName:        cfg.HTTP.CookieName,
		CookieSecure:      cfg.HTTP.CookieSecure,
		AllowedOrigins:    cfg.HTTP.AllowedOrigins,
		SessionTTL:        cfg.Session.TTL,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}, svc, sessions, web.WithLogger(logger), web.WithMetrics(metrics))
	if err != nil {
		return err
	}
	apiErrCh, err := api.Start()
	if err != nil {
		stopObservability(obsServer, cfg, logger)
		return err
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, "api", logger)
	if deps.APIServerReady != nil {
		deps.APIServerReady(api.Addr())
	}

	sweeper, err := session.StartSweeper(ctx, sessions, cfg.Session.SweepInterval, logger)
	if err != nil {
		return err
	}

	ready.Store(true)
	cmd.Println("sharkteam serving on " + api.Addr())
	logger.Info("sharkteam ready", "http_addr", api.Addr())

	<-ctx.Done()
	ready.Store(false)
	logger.Info("shutting down")

	sweeper.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := api.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	stopObservability(obsServer, cfg, logger)

	logger.Info("shutdown complete")
	return nil
}

// readinessProbes returns a probe for every backend that can ping itself.
func readinessProbes(users account.UserRepository, sessions session.Registry) []observability.Probe {
	var probes []observability.Probe
	if p, ok := users.(observability.Pinger); ok {
		probes = append(probes, observability.PingProbe("credential_store", p))
	}
	if p, ok := sessions.(observability.Pinger); ok {
		probes = append(probes, observability.PingProbe("session_registry", p))
	}
	return probes
}

func stopObservability(obsServer ObservabilityServer, cfg *config.Config, logger *slog.Logger) {
	if obsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := obsServer.Stop(ctx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}
}

// runAutoMigration applies pending migrations before the store is opened.
func runAutoMigration(databaseURL string, factory func(string) (AutoMigrator, error), logger *slog.Logger) error {
	migrator, err := factory(databaseURL)
	if err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	logger.Info("database schema is current")
	return nil
}

// monitorServerErrors cancels ctx when a server reports a fatal error.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
