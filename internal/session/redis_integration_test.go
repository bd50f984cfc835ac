// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sharkteam/sharkteam/internal/session"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.Run(ctx, "redis:7-alpine",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisRegistry_Lifecycle(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)

	r, err := session.NewRedisRegistry(client, "test:", time.Hour)
	require.NoError(t, err)
	require.NoError(t, r.Ping(ctx))

	token, s, err := r.Create(ctx, 99)
	require.NoError(t, err)

	ttl, err := client.TTL(ctx, r.Key(s.TokenHash)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	userID, err := r.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(99), userID)

	require.NoError(t, r.Invalidate(ctx, token))
	_, err = r.Resolve(ctx, token)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)

	require.NoError(t, r.Invalidate(ctx, token))
}

func TestRedisRegistry_ResetOnlyTouchesPrefix(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)

	r, err := session.NewRedisRegistry(client, "test:", 0)
	require.NoError(t, err)
	require.NoError(t, client.Set(ctx, "other:key", "keep", 0).Err())

	var tokens []string
	for i := range 600 {
		token, _, err := r.Create(ctx, int64(i))
		require.NoError(t, err)
		tokens = append(tokens, token)
	}

	require.NoError(t, r.Reset(ctx))

	for _, token := range tokens[:5] {
		_, err := r.Resolve(ctx, token)
		assert.ErrorIs(t, err, session.ErrUnauthenticated)
	}
	val, err := client.Get(ctx, "other:key").Result()
	require.NoError(t, err)
	assert.Equal(t, "keep", val)
}
