// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

// Package session binds opaque session tokens to user IDs.
//
// Tokens are 32 random bytes, hex-encoded, handed to the client once and
// never stored. Registries key sessions by the SHA-256 hash of the token.
// A token that has been invalidated never resolves again.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	TokenBytes = 32             // 32 bytes = 64 hex chars
	DefaultTTL = 24 * time.Hour // 24 hour expiry
)

// ErrUnauthenticated is wrapped by every error for a token that does not
// resolve: empty, unknown, expired or invalidated.
var ErrUnauthenticated = errors.New("unauthenticated")

// CodeInvalid is the oops code of unresolvable-token errors.
const CodeInvalid = "SESSION_INVALID"

// Session is one issued login.
type Session struct {
	ID        ulid.ULID
	UserID    int64
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time // zero means no expiry
}

// IsExpiredAt returns true if the session would be expired at the given time.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && !t.Before(s.ExpiresAt)
}

// Registry maps session tokens to user IDs.
type Registry interface {
	// Create issues a fresh token bound to userID. The plaintext token is
	// returned only here.
	Create(ctx context.Context, userID int64) (string, *Session, error)

	// Resolve returns the user bound to token, or an error wrapping
	// ErrUnauthenticated.
	Resolve(ctx context.Context, token string) (int64, error)

	// Invalidate removes the binding. Unknown or empty tokens are a no-op.
	Invalidate(ctx context.Context, token string) error

	// Reset drops every session.
	Reset(ctx context.Context) error
}

// Sweeper is implemented by registries that must drop expired entries themselves.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Counter is implemented by registries that can report their size cheaply.
type Counter interface {
	Len() int
}

// GenerateToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
func GenerateToken() (token, hash string, err error) {
	tokenBytes := make([]byte, TokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, HashToken(token), nil
}

// HashToken computes the SHA256 hash of a session token.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifyToken checks if the plaintext token matches the stored hash in constant time.
func VerifyToken(token, hash string) (bool, error) {
	if token == "" {
		return false, oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}
	if hash == "" {
		return false, oops.Code("SESSION_HASH_EMPTY").Errorf("stored hash cannot be empty")
	}
	computed := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1, nil
}

// newSession issues a token and the session record for it.
func newSession(userID int64, ttl time.Duration, now time.Time) (string, *Session, error) {
	token, hash, err := GenerateToken()
	if err != nil {
		return "", nil, err
	}
	s := &Session{
		ID:        ulid.Make(),
		UserID:    userID,
		TokenHash: hash,
		CreatedAt: now,
	}
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
	return token, s, nil
}

func invalid(reason string) error {
	return oops.Code(CodeInvalid).With("reason", reason).Wrapf(ErrUnauthenticated, "invalid session token")
}
