// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

// Package observability serves prometheus metrics and health probes on a
// private listener, separate from the account API.
package observability

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

const (
	defaultProbeTimeout = 2 * time.Second

	statusOK       = "ok"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// ReadinessChecker reports whether startup has finished.
type ReadinessChecker func() bool

// Pinger is implemented by backends that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe is a named dependency check run on every readiness request.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// PingProbe wraps a Pinger as a Probe.
func PingProbe(name string, p Pinger) Probe {
	return Probe{Name: name, Check: p.Ping}
}

// Health is the JSON body of the health endpoints.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Server exposes /metrics, /healthz/liveness and /healthz/readiness.
type Server struct {
	addr         string
	registry     *prometheus.Registry
	metrics      *Metrics
	isReady      ReadinessChecker
	probes       []Probe
	probeTimeout time.Duration
	logger       *slog.Logger

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProbes adds dependency checks to the readiness endpoint.
func WithProbes(probes ...Probe) Option {
	return func(s *Server) {
		s.probes = append(s.probes, probes...)
	}
}

// WithProbeTimeout bounds each dependency check.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.probeTimeout = d
		}
	}
}

// NewServer builds a server with its own registry holding the Go and process
// collectors plus the sharkteam metrics. A nil ready checker counts as ready.
func NewServer(addr string, ready ReadinessChecker, opts ...Option) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		addr:         addr,
		registry:     registry,
		metrics:      NewMetrics(registry),
		isReady:      ready,
		probeTimeout: defaultProbeTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry exposes the private registry so tests can gather from it.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Metrics returns the sharkteam metrics registered on this server.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the router serving the observability endpoints.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})).Methods(http.MethodGet)
	r.HandleFunc("/healthz/liveness", s.handleLiveness).Methods(http.MethodGet)
	r.HandleFunc("/healthz/readiness", s.handleReadiness).Methods(http.MethodGet)
	return r
}

// Start binds the listener and serves in the background. Serve failures
// arrive on the returned channel, which closes once the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("OBSERVABILITY_RUNNING").Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("OBSERVABILITY_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("observability server failed", "error", err)
			errCh <- err
		}
	}()

	s.logger.Info("observability server listening", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop shuts the server down. Stopping a server that is not running is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if err := srv.Shutdown(ctx); err != nil {
		s.running.Store(true)
		return oops.Code("OBSERVABILITY_SHUTDOWN_FAILED").Wrap(err)
	}
	s.logger.Info("observability server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeHealth(w, http.StatusOK, Health{Status: statusOK})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.isReady != nil && !s.isReady() {
		writeHealth(w, http.StatusServiceUnavailable, Health{Status: statusStarting})
		return
	}

	health := s.runProbes(r.Context())
	status := http.StatusOK
	if health.Status != statusOK {
		status = http.StatusServiceUnavailable
	}
	writeHealth(w, status, health)
}

// runProbes checks every dependency concurrently.
func (s *Server) runProbes(ctx context.Context) Health {
	health := Health{Status: statusOK}
	if len(s.probes) == 0 {
		return health
	}

	results := make([]error, len(s.probes))
	var wg sync.WaitGroup
	for i, p := range s.probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
			defer cancel()
			results[i] = p.Check(probeCtx)
		}()
	}
	wg.Wait()

	health.Checks = make(map[string]string, len(s.probes))
	for i, p := range s.probes {
		if results[i] != nil {
			s.logger.Warn("readiness probe failed", "probe", p.Name, "error", results[i])
			health.Status = statusDegraded
			health.Checks[p.Name] = results[i].Error()
			continue
		}
		health.Checks[p.Name] = statusOK
	}
	return health
}

func writeHealth(w http.ResponseWriter, status int, h Health) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	//nolint:errcheck // the prober may have gone away
	json.NewEncoder(w).Encode(h)
}
