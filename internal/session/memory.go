// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package session

import (
	"context"
	"sync"
	"time"
)

// MemoryRegistry is a process-local Registry. Invalidation takes the write
// lock and resolution the read lock, so once Invalidate returns no Resolve
// can observe the session.
type MemoryRegistry struct {
	mu     sync.RWMutex
	byHash map[string]Session
	ttl    time.Duration
	now    func() time.Time
}

// MemoryOption configures a MemoryRegistry.
type MemoryOption func(*MemoryRegistry)

// WithTTL sets the session lifetime. Zero disables expiry.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(r *MemoryRegistry) { r.ttl = ttl }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(r *MemoryRegistry) { r.now = now }
}

// NewMemoryRegistry creates an empty registry with DefaultTTL.
func NewMemoryRegistry(opts ...MemoryOption) *MemoryRegistry {
	r := &MemoryRegistry{
		byHash: make(map[string]Session),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create issues a token bound to userID.
func (r *MemoryRegistry) Create(_ context.Context, userID int64) (string, *Session, error) {
	token, s, err := newSession(userID, r.ttl, r.now())
	if err != nil {
		return "", nil, err
	}

	r.mu.Lock()
	r.byHash[s.TokenHash] = *s
	r.mu.Unlock()

	return token, s, nil
}

// Resolve returns the user bound to token. Expired entries stay in the map
// until Sweep or Invalidate removes them.
func (r *MemoryRegistry) Resolve(_ context.Context, token string) (int64, error) {
	if token == "" {
		return 0, invalid("empty")
	}
	hash := HashToken(token)

	r.mu.RLock()
	s, ok := r.byHash[hash]
	r.mu.RUnlock()

	if !ok {
		return 0, invalid("unknown")
	}
	if s.IsExpiredAt(r.now()) {
		return 0, invalid("expired")
	}
	return s.UserID, nil
}

// Invalidate removes the binding for token.
func (r *MemoryRegistry) Invalidate(_ context.Context, token string) error {
	if token == "" {
		return nil
	}
	hash := HashToken(token)

	r.mu.Lock()
	delete(r.byHash, hash)
	r.mu.Unlock()
	return nil
}

// Reset drops every session.
func (r *MemoryRegistry) Reset(_ context.Context) error {
	r.mu.Lock()
	clear(r.byHash)
	r.mu.Unlock()
	return nil
}

// Sweep removes expired sessions and reports how many were dropped.
func (r *MemoryRegistry) Sweep(_ context.Context) (int, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for hash, s := range r.byHash {
		if s.IsExpiredAt(now) {
			delete(r.byHash, hash)
			dropped++
		}
	}
	return dropped, nil
}

// Len returns the number of stored sessions, expired ones included.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byHash)
}
