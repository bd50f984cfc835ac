// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package account

import (
	"context"
	"time"
)

// User is a registered account.
type User struct {
	ID           int64
	Login        string
	Email        string
	PasswordHash string `json:"-"`
	Score        int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile returns the client-facing view of the user.
func (u *User) Profile() *Profile {
	return &Profile{
		ID:    u.ID,
		Login: u.Login,
		Email: u.Email,
		Score: u.Score,
	}
}

// Profile is what clients see of a user. It never carries the password hash.
type Profile struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
	Score int    `json:"score"`
}

// UserUpdate is a partial update. Nil fields are left unchanged.
type UserUpdate struct {
	Login        *string
	Email        *string
	PasswordHash *string
}

// ScoreEntry is one row of the leaderboard.
type ScoreEntry struct {
	Login string `json:"login"`
	Score int    `json:"score"`
}

// ScoreBoard is the caller's own score plus one leaderboard page.
type ScoreBoard struct {
	Login   string       `json:"login"`
	Score   int          `json:"score"`
	Offset  int          `json:"offset"`
	Limit   int          `json:"limit"`
	Entries []ScoreEntry `json:"entries"`
}

// UserRepository persists users. Implementations enforce login uniqueness
// themselves; callers never pre-check.
type UserRepository interface {
	// Create stores u and returns its assigned ID. A duplicate login yields
	// an error wrapping ErrConflict.
	Create(ctx context.Context, u *User) (int64, error)

	// GetByLogin returns the user with the exact login, or ErrNotFound.
	GetByLogin(ctx context.Context, login string) (*User, error)

	// GetByID returns the user with the given ID, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*User, error)

	// Update applies the non-nil fields of upd and returns the stored user.
	Update(ctx context.Context, id int64, upd UserUpdate) (*User, error)

	// UpdateScore sets the score of a user.
	UpdateScore(ctx context.Context, id int64, score int) error

	// ListByScore returns a leaderboard page ordered by score desc, id asc.
	ListByScore(ctx context.Context, offset, limit int) ([]ScoreEntry, error)
}
