// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/sharkteam/sharkteam/internal/account"
	"github.com/sharkteam/sharkteam/internal/config"
	"github.com/sharkteam/sharkteam/internal/observability"
	"github.com/sharkteam/sharkteam/internal/session"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// UserStoreFactory opens the credential store selected by store.driver.
	// Default: openUserStore
	UserStoreFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (account.UserRepository, func(), error)

	// SessionRegistryFactory opens the registry selected by session.backend.
	// Default: openSessionRegistry
	SessionRegistryFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (session.Registry, func(), error)

	// MigratorFactory creates a migrator for auto-migration.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (AutoMigrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, probes []observability.Probe, logger *slog.Logger) ObservabilityServer

	// APIServerReady is called once the API listener is bound. Tests use it
	// to learn the address.
	APIServerReady func(addr string)
}

// AutoMigrator is the part of store.Migrator used at startup.
type AutoMigrator interface {
	Up() error
	Close() error
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}
