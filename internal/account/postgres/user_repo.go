// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

// Package postgres implements account.UserRepository on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/sharkteam/sharkteam/internal/account"
)

// poolIface is the subset of *pgxpool.Pool the repository uses.
// pgxmock.PgxPoolIface satisfies it in tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const userColumns = `id, login, email, password_hash, score, created_at, updated_at`

// UserRepository implements account.UserRepository using PostgreSQL.
// Login uniqueness is enforced by the users_login_key constraint.
type UserRepository struct {
	pool poolIface
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool poolIface) *UserRepository {
	return &UserRepository{pool: pool}
}

// Ping checks that the database answers.
func (r *UserRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return oops.Code("DB_PING_FAILED").Wrap(err)
	}
	return nil
}

// Create inserts u and returns the generated ID.
func (r *UserRepository) Create(ctx context.Context, u *account.User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (login, email, password_hash, score)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, u.Login, u.Email, u.PasswordHash, u.Score).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, loginTaken(u.Login, err)
		}
		return 0, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("login", u.Login).
			Wrap(err)
	}
	return id, nil
}

// GetByLogin retrieves a user by exact login.
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*account.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE login = $1`, login)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, oops.Code(account.CodeUserNotFound).With("login", login).Wrap(account.ErrNotFound)
		}
		return nil, oops.Code("USER_QUERY_FAILED").
			With("operation", "get user by login").
			With("login", login).
			Wrap(err)
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*account.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, oops.Code(account.CodeUserNotFound).With("id", id).Wrap(account.ErrNotFound)
		}
		return nil, oops.Code("USER_QUERY_FAILED").
			With("operation", "get user by id").
			With("id", id).
			Wrap(err)
	}
	return u, nil
}

// Update applies the non-nil fields of upd in one statement.
func (r *UserRepository) Update(ctx context.Context, id int64, upd account.UserUpdate) (*account.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET
			login = COALESCE($2, login),
			email = COALESCE($3, email),
			password_hash = COALESCE($4, password_hash),
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, upd.Login, upd.Email, upd.PasswordHash,
	)
	u, err := scanUser(row)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, oops.Code(account.CodeUserNotFound).With("id", id).Wrap(account.ErrNotFound)
		case isUniqueViolation(err):
			login := ""
			if upd.Login != nil {
				login = *upd.Login
			}
			return nil, loginTaken(login, err)
		}
		return nil, oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", id).
			Wrap(err)
	}
	return u, nil
}

// UpdateScore sets the score of a user.
func (r *UserRepository) UpdateScore(ctx context.Context, id int64, score int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET score = $2, updated_at = now() WHERE id = $1
	`, id, score)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.NumericValueOutOfRange {
			return oops.Code(account.CodeInvalidForm).
				With("field", "score").
				With("id", id).
				Wrapf(account.ErrValidation, "score out of range")
		}
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update score").
			With("id", id).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code(account.CodeUserNotFound).With("id", id).Wrap(account.ErrNotFound)
	}
	return nil
}

// ListByScore returns a leaderboard page.
func (r *UserRepository) ListByScore(ctx context.Context, offset, limit int) ([]account.ScoreEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT login, score FROM users
		ORDER BY score DESC, id ASC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").
			With("operation", "list by score").
			Wrap(err)
	}
	defer rows.Close()

	entries := make([]account.ScoreEntry, 0, limit)
	for rows.Next() {
		var e account.ScoreEntry
		if err := rows.Scan(&e.Login, &e.Score); err != nil {
			return nil, oops.Code("USER_QUERY_FAILED").
				With("operation", "scan score entry").
				Wrap(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").
			With("operation", "iterate score entries").
			Wrap(err)
	}
	return entries, nil
}

func scanUser(row pgx.Row) (*account.User, error) {
	var u account.User
	if err := row.Scan(&u.ID, &u.Login, &u.Email, &u.PasswordHash, &u.Score, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers classify and wrap
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// loginTaken keeps the pg error as context only; the kind is ErrConflict.
func loginTaken(login string, cause error) error {
	return oops.Code(account.CodeLoginTaken).
		With("login", login).
		With("cause", cause.Error()).
		Wrap(account.ErrConflict)
}
