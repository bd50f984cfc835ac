// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharkteam/sharkteam/internal/account"
	"github.com/sharkteam/sharkteam/internal/account/memory"
	"github.com/sharkteam/sharkteam/internal/config"
)

// useSharedStore makes every user command see the same in-memory store.
func useSharedStore(t *testing.T) *memory.UserRepository {
	t.Helper()
	repo := memory.NewUserRepository()
	orig := userStoreFactory
	userStoreFactory = func(context.Context, *config.Config, *slog.Logger) (account.UserRepository, func(), error) {
		return repo, func() {}, nil
	}
	t.Cleanup(func() { userStoreFactory = orig })
	return repo
}

func TestUserCommands(t *testing.T) {
	repo := useSharedStore(t)
	common := []string{"--store-driver", "memory"}

	out, err := execute(t, append([]string{"user", "create", "--login", "tiger", "--email", "t@example.com", "--password", "stripes"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `Created user "tiger"`)

	u, err := repo.GetByLogin(context.Background(), "tiger")
	require.NoError(t, err)
	assert.NotEqual(t, "stripes", u.PasswordHash)

	_, err = execute(t, append([]string{"user", "create", "--login", "tiger", "--email", "x@example.com", "--password", "pw"}, common...)...)
	require.ErrorIs(t, err, account.ErrConflict)

	_, err = execute(t, append([]string{"user", "score", "--login", "tiger", "--value", "42"}, common...)...)
	require.NoError(t, err)

	out, err = execute(t, append([]string{"user", "show", "--login", "tiger"}, common...)...)
	require.NoError(t, err)
	var profile account.Profile
	require.NoError(t, json.Unmarshal([]byte(out), &profile))
	assert.Equal(t, 42, profile.Score)
	assert.Equal(t, "t@example.com", profile.Email)

	_, err = execute(t, append([]string{"user", "show", "--login", "nobody"}, common...)...)
	require.ErrorIs(t, err, account.ErrNotFound)

	_, err = execute(t, append([]string{"user", "score", "--login", "tiger"}, common...)...)
	require.ErrorIs(t, err, account.ErrValidation)

	_, err = execute(t, append([]string{"user", "create", "--login", "", "--email", "e", "--password", "p"}, common...)...)
	require.ErrorIs(t, err, account.ErrValidation)
}
