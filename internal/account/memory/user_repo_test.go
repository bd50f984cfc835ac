// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package memory_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharkteam/sharkteam/internal/account"
	"github.com/sharkteam/sharkteam/internal/account/memory"
	"github.com/sharkteam/sharkteam/pkg/errutil"
)

func ptr[T any](v T) *T { return &v }

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	id, err := repo.Create(ctx, &account.User{Login: "login", Email: "user@mail.ru", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	byLogin, err := repo.GetByLogin(ctx, "login")
	require.NoError(t, err)
	assert.Equal(t, id, byLogin.ID)
	assert.Equal(t, "user@mail.ru", byLogin.Email)
	assert.Zero(t, byLogin.Score)
	assert.False(t, byLogin.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, byLogin, byID)
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	in := &account.User{Login: "login", Email: "e", PasswordHash: "h"}
	id, err := repo.Create(ctx, in)
	require.NoError(t, err)
	in.Login = "mutated"

	u, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	u.Email = "mutated"

	again, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "login", again.Login)
	assert.Equal(t, "e", again.Email)
}

func TestUserRepository_DuplicateLogin(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	_, err := repo.Create(ctx, &account.User{Login: "login", Email: "a", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &account.User{Login: "login", Email: "b", PasswordHash: "h"})
	errutil.AssertErrorKind(t, err, account.ErrConflict, account.CodeLoginTaken)

	// logins are case-sensitive
	_, err = repo.Create(ctx, &account.User{Login: "LOGIN", Email: "c", PasswordHash: "h"})
	require.NoError(t, err)
}

func TestUserRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	_, err := repo.GetByLogin(ctx, "nobody")
	errutil.AssertErrorKind(t, err, account.ErrNotFound, account.CodeUserNotFound)

	_, err = repo.GetByID(ctx, -1)
	errutil.AssertErrorKind(t, err, account.ErrNotFound, account.CodeUserNotFound)

	_, err = repo.Update(ctx, 5, account.UserUpdate{Email: ptr("x")})
	errutil.AssertErrorKind(t, err, account.ErrNotFound, account.CodeUserNotFound)

	err = repo.UpdateScore(ctx, 5, 10)
	errutil.AssertErrorKind(t, err, account.ErrNotFound, account.CodeUserNotFound)
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	id, err := repo.Create(ctx, &account.User{Login: "login", Email: "old", PasswordHash: "h1"})
	require.NoError(t, err)
	other, err := repo.Create(ctx, &account.User{Login: "other", Email: "o", PasswordHash: "h"})
	require.NoError(t, err)

	t.Run("partial update keeps unset fields", func(t *testing.T) {
		u, err := repo.Update(ctx, id, account.UserUpdate{Email: ptr("new")})
		require.NoError(t, err)
		assert.Equal(t, "login", u.Login)
		assert.Equal(t, "new", u.Email)
		assert.Equal(t, "h1", u.PasswordHash)
	})

	t.Run("login collision is a conflict and changes nothing", func(t *testing.T) {
		_, err := repo.Update(ctx, id, account.UserUpdate{Login: ptr("other"), Email: ptr("changed")})
		errutil.AssertErrorKind(t, err, account.ErrConflict, account.CodeLoginTaken)

		u, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "new", u.Email)
	})

	t.Run("keeping own login is not a conflict", func(t *testing.T) {
		_, err := repo.Update(ctx, id, account.UserUpdate{Login: ptr("login")})
		require.NoError(t, err)
	})

	t.Run("rename frees the old login", func(t *testing.T) {
		u, err := repo.Update(ctx, id, account.UserUpdate{Login: ptr("renamed"), PasswordHash: ptr("h2")})
		require.NoError(t, err)
		assert.Equal(t, "renamed", u.Login)
		assert.Equal(t, "h2", u.PasswordHash)

		_, err = repo.GetByLogin(ctx, "login")
		assert.ErrorIs(t, err, account.ErrNotFound)

		got, err := repo.GetByLogin(ctx, "renamed")
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)

		_, err = repo.Update(ctx, other, account.UserUpdate{Login: ptr("login")})
		require.NoError(t, err)
	})
}

func TestUserRepository_ListByScore(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	scores := map[string]int{"a": 5, "b": 100, "c": 5, "d": 1}
	for _, login := range []string{"a", "b", "c", "d"} {
		id, err := repo.Create(ctx, &account.User{Login: login, Email: "e", PasswordHash: "h"})
		require.NoError(t, err)
		require.NoError(t, repo.UpdateScore(ctx, id, scores[login]))
	}

	page, err := repo.ListByScore(ctx, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []account.ScoreEntry{
		{Login: "b", Score: 100},
		{Login: "a", Score: 5},
		{Login: "c", Score: 5},
	}, page)

	page, err = repo.ListByScore(ctx, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, []account.ScoreEntry{{Login: "d", Score: 1}}, page)

	page, err = repo.ListByScore(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestUserRepository_ConcurrentCreateSameLogin(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	const workers = 50
	var created atomic.Int64
	var conflicts atomic.Int64
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, &account.User{Login: "same", Email: fmt.Sprint(i), PasswordHash: "h"})
			switch {
			case err == nil:
				created.Add(1)
			case assert.ErrorIs(t, err, account.ErrConflict):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), created.Load())
	assert.Equal(t, int64(workers-1), conflicts.Load())
}
