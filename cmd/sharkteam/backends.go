// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/sharkteam/sharkteam/internal/account"
	"github.com/sharkteam/sharkteam/internal/account/memory"
	"github.com/sharkteam/sharkteam/internal/account/postgres"
	"github.com/sharkteam/sharkteam/internal/config"
	"github.com/sharkteam/sharkteam/internal/session"
	"github.com/sharkteam/sharkteam/internal/store"
)

const connectBackoff = 500 * time.Millisecond

// openUserStore returns the credential store and a func that releases it.
func openUserStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (account.UserRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory credential store; accounts are lost on exit")
		return memory.NewUserRepository(), func() {}, nil
	case config.DriverPostgres:
		pool, err := store.Open(ctx, cfg.Database.URL, store.RetryConfig{
			Attempts: cfg.Database.ConnectRetries,
			Base:     connectBackoff,
			Logger:   logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewUserRepository(pool), pool.Close, nil
	default:
		return nil, nil, oops.Code("CONFIG_INVALID").With("driver", cfg.Store.Driver).Errorf("unknown store driver")
	}
}

// openSessionRegistry returns the session registry and a func that releases it.
func openSessionRegistry(ctx context.Context, cfg *config.Config, logger *slog.Logger) (session.Registry, func(), error) {
	switch cfg.Session.Backend {
	case config.BackendMemory:
		return session.NewMemoryRegistry(session.WithTTL(cfg.Session.TTL)), func() {}, nil
	case config.BackendRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:      cfg.Redis.Addrs,
			MasterName: cfg.Redis.MasterName,
			DB:         cfg.Redis.DB,
			Password:   cfg.Redis.Password,
		})
		closeClient := func() {
			if err := client.Close(); err != nil {
				logger.Warn("failed to close redis client", "error", err)
			}
		}

		ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		if err := store.WaitReady(ctx, "redis", store.RetryConfig{
			Attempts: cfg.Database.ConnectRetries,
			Base:     connectBackoff,
			Logger:   logger,
		}, ping); err != nil {
			closeClient()
			return nil, nil, err
		}

		registry, err := session.NewRedisRegistry(client, cfg.Redis.Prefix, cfg.Session.TTL)
		if err != nil {
			closeClient()
			return nil, nil, err
		}
		return registry, closeClient, nil
	default:
		return nil, nil, oops.Code("CONFIG_INVALID").With("backend", cfg.Session.Backend).Errorf("unknown session backend")
	}
}

// openService wires a Service for the admin commands. Those never issue
// sessions, so an in-memory registry is enough.
func openService(ctx context.Context, cfg *config.Config, logger *slog.Logger, factory func(context.Context, *config.Config, *slog.Logger) (account.UserRepository, func(), error)) (*account.Service, func(), error) {
	if factory == nil {
		factory = openUserStore
	}
	users, closeUsers, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	hasher, err := account.NewArgon2idHasherWithParams(cfg.Hasher)
	if err != nil {
		closeUsers()
		return nil, nil, err
	}
	svc, err := account.NewService(users, session.NewMemoryRegistry(), hasher, account.WithLogger(logger))
	if err != nil {
		closeUsers()
		return nil, nil, err
	}
	return svc, closeUsers, nil
}
