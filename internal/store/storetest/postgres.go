//go:build integration

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

// Package storetest starts disposable PostgreSQL instances for integration tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sharkteam/sharkteam/internal/store"
)

// StartPostgres runs postgres:16-alpine and returns its connection string.
// The container is terminated when the test ends.
func StartPostgres(t testing.TB) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("sharkteam"),
		postgres.WithUsername("sharkteam"),
		postgres.WithPassword("sharkteam"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background()) //nolint:errcheck // best effort
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

// MigratedPool starts PostgreSQL, applies every migration and returns an open pool.
func MigratedPool(t testing.TB) *pgxpool.Pool {
	t.Helper()
	url := StartPostgres(t)

	migrator, err := store.NewMigrator(url)
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Close())

	pool, err := store.Open(context.Background(), url, store.RetryConfig{Attempts: 5, Base: 100 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}
