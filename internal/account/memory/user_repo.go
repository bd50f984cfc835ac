// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

// Package memory provides an in-process UserRepository.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/sharkteam/sharkteam/internal/account"
)

// UserRepository keeps users in maps guarded by one lock. The login
// uniqueness check and the insert happen under the same write lock.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[int64]*account.User
	byLogin map[string]int64
	nextID  int64
	now     func() time.Time
}

// NewUserRepository creates an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[int64]*account.User),
		byLogin: make(map[string]int64),
		now:     time.Now,
	}
}

// Create stores a copy of u and returns its new ID.
func (r *UserRepository) Create(_ context.Context, u *account.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byLogin[u.Login]; taken {
		return 0, loginTaken(u.Login)
	}

	r.nextID++
	now := r.now()
	stored := *u
	stored.ID = r.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.byID[stored.ID] = &stored
	r.byLogin[stored.Login] = stored.ID
	return stored.ID, nil
}

// GetByLogin returns a copy of the user with the exact login.
func (r *UserRepository) GetByLogin(_ context.Context, login string) (*account.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byLogin[login]
	if !ok {
		return nil, notFound("login", login)
	}
	u := *r.byID[id]
	return &u, nil
}

// GetByID returns a copy of the user with the given ID.
func (r *UserRepository) GetByID(_ context.Context, id int64) (*account.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, notFound("id", id)
	}
	cp := *u
	return &cp, nil
}

// Update applies the non-nil fields of upd atomically.
func (r *UserRepository) Update(_ context.Context, id int64, upd account.UserUpdate) (*account.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, notFound("id", id)
	}
	if upd.Login != nil && *upd.Login != u.Login {
		if _, taken := r.byLogin[*upd.Login]; taken {
			return nil, loginTaken(*upd.Login)
		}
	}

	next := *u
	if upd.Login != nil {
		next.Login = *upd.Login
	}
	if upd.Email != nil {
		next.Email = *upd.Email
	}
	if upd.PasswordHash != nil {
		next.PasswordHash = *upd.PasswordHash
	}
	next.UpdatedAt = r.now()

	if next.Login != u.Login {
		delete(r.byLogin, u.Login)
		r.byLogin[next.Login] = id
	}
	r.byID[id] = &next

	cp := next
	return &cp, nil
}

// UpdateScore sets the score of a user.
func (r *UserRepository) UpdateScore(_ context.Context, id int64, score int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return notFound("id", id)
	}
	next := *u
	next.Score = score
	next.UpdatedAt = r.now()
	r.byID[id] = &next
	return nil
}

// ListByScore returns a page ordered by score desc, id asc.
func (r *UserRepository) ListByScore(_ context.Context, offset, limit int) ([]account.ScoreEntry, error) {
	r.mu.RLock()
	users := make([]account.User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, *u)
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].Score != users[j].Score {
			return users[i].Score > users[j].Score
		}
		return users[i].ID < users[j].ID
	})

	if offset >= len(users) {
		return []account.ScoreEntry{}, nil
	}
	end := min(offset+limit, len(users))
	entries := make([]account.ScoreEntry, 0, end-offset)
	for _, u := range users[offset:end] {
		entries = append(entries, account.ScoreEntry{Login: u.Login, Score: u.Score})
	}
	return entries, nil
}

func notFound(key string, value any) error {
	return oops.Code(account.CodeUserNotFound).With(key, value).Wrap(account.ErrNotFound)
}

func loginTaken(login string) error {
	return oops.Code(account.CodeLoginTaken).With("login", login).Wrap(account.ErrConflict)
}
