// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package web

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gobwas/glob"
	"github.com/gorilla/mux"
	"github.com/samber/oops"

	"github.com/sharkteam/sharkteam/internal/account"
	"github.com/sharkteam/sharkteam/internal/observability"
	"github.com/sharkteam/sharkteam/internal/session"
)

// AccountService is the part of account.Service the API calls.
type AccountService interface {
	Register(ctx context.Context, caller account.Identity, form account.RegisterForm) (*account.Profile, string, error)
	Authenticate(ctx context.Context, caller account.Identity, form account.LoginForm) (*account.Profile, string, error)
	Logout(ctx context.Context, caller account.Identity) error
	Profile(ctx context.Context, caller account.Identity) (*account.Profile, error)
	UpdateProfile(ctx context.Context, caller account.Identity, form account.RegisterForm) (*account.Profile, error)
	Score(ctx context.Context, caller account.Identity, q account.ScoreQuery) (*account.ScoreBoard, error)
	SubmitScore(ctx context.Context, caller account.Identity, score int) (*account.Profile, error)
}

// Config configures the API server.
type Config struct {
	Addr              string
	CookieName        string
	CookieSecure      bool
	AllowedOrigins    []string
	SessionTTL        time.Duration
	ReadHeaderTimeout time.Duration
}

// DefaultCookieName is used when Config.CookieName is empty.
const DefaultCookieName = "SHARKSESSION"

// Server serves the account API.
type Server struct {
	cfg      Config
	svc      AccountService
	sessions session.Registry
	origins  []glob.Glob
	router   *mux.Router
	handler  http.Handler
	logger   *slog.Logger
	metrics  *observability.Metrics

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the access and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records request metrics. Nil disables them.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer builds the router and middleware chain.
func NewServer(cfg Config, svc AccountService, sessions session.Registry, opts ...Option) (*Server, error) {
	if svc == nil || sessions == nil {
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("account service and session registry are required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = session.DefaultTTL
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}

	origins := make([]glob.Glob, 0, len(cfg.AllowedOrigins))
	for _, pattern := range cfg.AllowedOrigins {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, oops.Code("WEB_CONFIG_INVALID").With("origin", pattern).Wrap(err)
		}
		origins = append(origins, g)
	}

	s := &Server{
		cfg:      cfg,
		svc:      svc,
		sessions: sessions,
		origins:  origins,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = s.routes()
	s.handler = s.observe(s.recoverPanics(s.cors(s.resolveSession(s.router))))
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)

	api := r.PathPrefix("/api/users").Subrouter()
	api.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost)
	api.HandleFunc("/signin", s.handleSignin).Methods(http.MethodPost)
	api.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/me", s.handleProfile).Methods(http.MethodGet)
	api.HandleFunc("/me", s.handleUpdateProfile).Methods(http.MethodPost)
	api.HandleFunc("/score", s.handleScore).Methods(http.MethodGet)
	api.HandleFunc("/score", s.handleSubmitScore).Methods(http.MethodPost)
	return r
}

// Handler returns the full middleware chain, for httptest and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on Config.Addr and serves in the background. The returned
// channel receives a serve error, and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("WEB_RUNNING").Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("WEB_LISTEN_FAILED").With("addr", s.cfg.Addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.running.Store(true)
		return oops.With("operation", "shutdown_api_server").Wrap(err)
	}
	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
