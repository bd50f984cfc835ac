// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/sharkteam/sharkteam/internal/session"
	"github.com/sharkteam/sharkteam/pkg/errutil"
)

// EventRecorder counts account events. observability.Metrics implements it.
type EventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) RecordAuthEvent(string, string) {}

// Service implements the account operations.
type Service struct {
	users    UserRepository
	sessions session.Registry
	hasher   PasswordHasher
	logger   *slog.Logger
	events   EventRecorder
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEventRecorder sets where account events are counted. Nil is ignored.
func WithEventRecorder(r EventRecorder) Option {
	return func(s *Service) {
		if r != nil {
			s.events = r
		}
	}
}

// NewService creates a Service. All three dependencies are required.
func NewService(users UserRepository, sessions session.Registry, hasher PasswordHasher, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, oops.Code("ACCOUNT_CONFIG_INVALID").Errorf("user repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("ACCOUNT_CONFIG_INVALID").Errorf("session registry is required")
	}
	if hasher == nil {
		return nil, oops.Code("ACCOUNT_CONFIG_INVALID").Errorf("password hasher is required")
	}
	s := &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		logger:   slog.New(slog.DiscardHandler),
		events:   noopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// dummyPasswordHash is verified when a login does not exist so both failure
// paths cost the same. It matches no password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register creates a user and logs them in.
// Returns the new profile and the plaintext session token.
func (s *Service) Register(ctx context.Context, caller Identity, form RegisterForm) (*Profile, string, error) {
	if caller.Authenticated() {
		s.record("register", "forbidden")
		return nil, "", AlreadyAuthenticated(caller)
	}
	if err := form.Validate(); err != nil {
		s.record("register", "invalid")
		return nil, "", err
	}

	hash, err := s.hasher.Hash(form.Password)
	if err != nil {
		return nil, "", s.internal(ctx, "hash password", err)
	}

	u := &User{Login: form.Login, Email: form.Email, PasswordHash: hash}
	id, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			s.record("register", "conflict")
			return nil, "", loginTaken(form.Login)
		}
		return nil, "", s.internal(ctx, "create user", err)
	}
	u.ID = id

	token, err := s.openSession(ctx, id)
	if err != nil {
		return nil, "", err
	}

	s.record("register", "success")
	s.logger.InfoContext(ctx, "user registered", "user_id", id, "login", u.Login)
	return u.Profile(), token, nil
}

// Authenticate checks credentials and opens a session.
// Unknown logins and wrong passwords fail identically.
func (s *Service) Authenticate(ctx context.Context, caller Identity, form LoginForm) (*Profile, string, error) {
	if caller.Authenticated() {
		s.record("login", "forbidden")
		return nil, "", AlreadyAuthenticated(caller)
	}
	if err := form.Validate(); err != nil {
		s.record("login", "invalid")
		return nil, "", err
	}

	u, lookupErr := s.users.GetByLogin(ctx, form.Login)

	targetHash := dummyPasswordHash
	exists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, "", s.internal(ctx, "get user by login", lookupErr)
		}
	} else {
		targetHash = u.PasswordHash
		exists = true
	}

	valid, verifyErr := s.hasher.Verify(form.Password, targetHash)
	if verifyErr != nil && exists {
		return nil, "", s.internal(ctx, "verify password", verifyErr)
	}
	if !exists || !valid {
		s.record("login", "failure")
		return nil, "", invalidCredentials()
	}

	token, err := s.openSession(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}

	s.record("login", "success")
	return u.Profile(), token, nil
}

// Logout invalidates the caller's session.
func (s *Service) Logout(ctx context.Context, caller Identity) error {
	if !caller.Authenticated() {
		s.record("logout", "forbidden")
		return unauthenticated()
	}
	if err := s.sessions.Invalidate(ctx, caller.SessionToken); err != nil {
		return s.internal(ctx, "invalidate session", err)
	}
	s.record("logout", "success")
	return nil
}

// Profile returns the caller's profile.
func (s *Service) Profile(ctx context.Context, caller Identity) (*Profile, error) {
	u, err := s.currentUser(ctx, caller)
	if err != nil {
		return nil, err
	}
	return u.Profile(), nil
}

// UpdateProfile overwrites login, email and password of the caller.
// The caller's session stays valid.
func (s *Service) UpdateProfile(ctx context.Context, caller Identity, form RegisterForm) (*Profile, error) {
	u, err := s.currentUser(ctx, caller)
	if err != nil {
		return nil, err
	}
	if err := form.Validate(); err != nil {
		s.record("update_profile", "invalid")
		return nil, err
	}

	hash, err := s.hasher.Hash(form.Password)
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}

	updated, err := s.users.Update(ctx, u.ID, UserUpdate{
		Login:        &form.Login,
		Email:        &form.Email,
		PasswordHash: &hash,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrConflict):
			s.record("update_profile", "conflict")
			return nil, loginTaken(form.Login)
		case errors.Is(err, ErrNotFound):
			return nil, staleSession(caller)
		}
		return nil, s.internal(ctx, "update user", err)
	}

	s.record("update_profile", "success")
	return updated.Profile(), nil
}

// Score returns the caller's score and a leaderboard page.
func (s *Service) Score(ctx context.Context, caller Identity, q ScoreQuery) (*ScoreBoard, error) {
	u, err := s.currentUser(ctx, caller)
	if err != nil {
		return nil, err
	}
	q, err = q.Normalize()
	if err != nil {
		return nil, err
	}

	entries, err := s.users.ListByScore(ctx, q.Offset, q.Limit)
	if err != nil {
		return nil, s.internal(ctx, "list scores", err)
	}
	if entries == nil {
		entries = []ScoreEntry{}
	}

	return &ScoreBoard{
		Login:   u.Login,
		Score:   u.Score,
		Offset:  q.Offset,
		Limit:   q.Limit,
		Entries: entries,
	}, nil
}

// SubmitScore stores a new score for the caller.
func (s *Service) SubmitScore(ctx context.Context, caller Identity, score int) (*Profile, error) {
	u, err := s.currentUser(ctx, caller)
	if err != nil {
		return nil, err
	}
	if err := validateScore(score); err != nil {
		return nil, err
	}
	if err := s.users.UpdateScore(ctx, u.ID, score); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, staleSession(caller)
		}
		return nil, s.internal(ctx, "update score", err)
	}
	u.Score = score
	return u.Profile(), nil
}

// AddUser creates a user without opening a session.
func (s *Service) AddUser(ctx context.Context, login, email, password string) (int64, error) {
	form := RegisterForm{Login: login, Email: email, Password: password}
	if err := form.Validate(); err != nil {
		return 0, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, s.internal(ctx, "hash password", err)
	}
	id, err := s.users.Create(ctx, &User{Login: login, Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return 0, loginTaken(login)
		}
		return 0, s.internal(ctx, "create user", err)
	}
	return id, nil
}

// UserByLogin looks a user up by exact login.
func (s *Service) UserByLogin(ctx context.Context, login string) (*User, error) {
	u, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, s.internal(ctx, "get user by login", err)
	}
	return u, nil
}

// SetScore sets the score of user id.
func (s *Service) SetScore(ctx context.Context, id int64, score int) error {
	if err := validateScore(score); err != nil {
		return err
	}
	if err := s.users.UpdateScore(ctx, id, score); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return s.internal(ctx, "update score", err)
	}
	return nil
}

// currentUser loads the user bound to an authenticated caller.
func (s *Service) currentUser(ctx context.Context, caller Identity) (*User, error) {
	if !caller.Authenticated() {
		return nil, unauthenticated()
	}
	u, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, staleSession(caller)
		}
		return nil, s.internal(ctx, "get user by id", err)
	}
	return u, nil
}

func (s *Service) openSession(ctx context.Context, userID int64) (string, error) {
	token, _, err := s.sessions.Create(ctx, userID)
	if err != nil {
		return "", s.internal(ctx, "create session", err)
	}
	return token, nil
}

func (s *Service) record(event, outcome string) {
	s.events.RecordAuthEvent(event, outcome)
}

// internal wraps an unexpected failure. It carries no error kind.
func (s *Service) internal(ctx context.Context, operation string, err error) error {
	wrapped := oops.Code(CodeInternal).With("operation", operation).Wrap(err)
	errutil.LogErrorContext(ctx, s.logger, "account operation failed", wrapped)
	return wrapped
}

// AlreadyAuthenticated returns the error for an authenticated caller attempting an anonymous-only action.
func AlreadyAuthenticated(caller Identity) error {
	return oops.Code(CodeAlreadyAuthenticated).
		With("user_id", caller.UserID).
		Wrapf(ErrForbidden, "already authenticated")
}

func unauthenticated() error {
	return oops.Code(CodeUnauthenticated).Wrapf(ErrForbidden, "authentication required")
}

func staleSession(caller Identity) error {
	return oops.Code(CodeStaleSession).
		With("user_id", caller.UserID).
		Wrapf(ErrForbidden, "session is bound to an unknown user")
}

func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Wrapf(ErrNotFound, "invalid login or password")
}

func loginTaken(login string) error {
	return oops.Code(CodeLoginTaken).With("login", login).Wrapf(ErrConflict, "login already taken")
}
