// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// RetryConfig bounds how long startup waits for a dependency.
type RetryConfig struct {
	Attempts uint64
	Base     time.Duration
	Logger   *slog.Logger
}

// WaitReady calls ping until it succeeds, retrying with exponential backoff
// up to cfg.Attempts extra times.
func WaitReady(ctx context.Context, name string, cfg RetryConfig, ping func(context.Context) error) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	base := cfg.Base
	if base <= 0 {
		base = time.Second
	}

	attempt := 0
	backoff := retry.WithMaxRetries(cfg.Attempts, retry.WithCappedDuration(30*time.Second, retry.NewExponential(base)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := ping(ctx); err != nil {
			logger.WarnContext(ctx, "dependency not ready", "dependency", name, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DEPENDENCY_UNAVAILABLE").
			With("dependency", name).
			With("attempts", attempt).
			Wrap(err)
	}
	logger.InfoContext(ctx, "dependency ready", "dependency", name, "attempts", attempt)
	return nil
}

// Open creates a pgx pool for databaseURL and waits until it answers a ping.
func Open(ctx context.Context, databaseURL string, cfg RetryConfig) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, oops.Code("DB_CONFIG_INVALID").Errorf("database url is required")
	}
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	if err := WaitReady(ctx, "postgres", cfg, pool.Ping); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
