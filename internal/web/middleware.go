// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sharkteam/sharkteam/internal/account"
	"github.com/sharkteam/sharkteam/internal/logging"
	"github.com/sharkteam/sharkteam/internal/session"
	"github.com/sharkteam/sharkteam/pkg/errutil"
)

// RequestIDHeader carries the request id back to the client.
const RequestIDHeader = "X-Request-ID"

const unmatchedRoute = "unmatched"

var tracer = otel.Tracer("sharkteam/web")

type identityKey struct{}

// IdentityFrom returns the caller resolved by the session middleware.
func IdentityFrom(ctx context.Context) account.Identity {
	if id, ok := ctx.Value(identityKey{}).(account.Identity); ok {
		return id
	}
	return account.Anonymous
}

func withIdentity(ctx context.Context, id account.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// observe assigns a request id, opens a server span and records the access
// log line and request metrics once the response is written.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := s.routeOf(r)
		requestID := ulid.Make().String()

		ctx, span := tracer.Start(r.Context(), r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("sharkteam.request_id", requestID),
			),
		)
		defer span.End()
		ctx = logging.WithRequestID(ctx, requestID)

		w.Header().Set(RequestIDHeader, requestID)
		m := httpsnoop.CaptureMetrics(next, w, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.response.status_code", m.Code))
		if m.Code >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(m.Code))
		}
		s.metrics.ObserveRequest(route, r.Method, m.Code, m.Duration)
		s.logger.InfoContext(ctx, "http request",
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration,
		)
	})
}

// routeOf returns the matched route template so metric labels stay bounded.
func (s *Server) routeOf(r *http.Request) string {
	var match mux.RouteMatch
	if !s.router.Match(r, &match) || match.Route == nil {
		return unmatchedRoute
	}
	tmpl, err := match.Route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tmpl
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity, as net/http does
				panic(rec)
			}
			err := oops.Code("HTTP_PANIC").With("path", r.URL.Path).Errorf("handler panic: %v", rec)
			trace.SpanFromContext(r.Context()).RecordError(err)
			writeError(r.Context(), w, s.logger, err)
		}()
		next.ServeHTTP(w, r)
	})
}

// cors admits browser origins matching one of the configured globs.
// Credentials are allowed so the session cookie travels cross-origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := origin != "" && s.originAllowed(origin)
		if allowed {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Methods", strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", "))
				h.Set("Access-Control-Allow-Headers", "Content-Type")
				h.Set("Access-Control-Max-Age", "600")
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, g := range s.origins {
		if g.Match(origin) {
			return true
		}
	}
	return false
}

// resolveSession turns the session cookie into an account.Identity. Unknown
// and expired tokens leave the caller anonymous.
func (s *Server) resolveSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identity := account.Anonymous

		if token := s.sessionToken(r); token != "" {
			userID, err := s.sessions.Resolve(ctx, token)
			switch {
			case err == nil:
				identity = account.Identity{UserID: userID, SessionToken: token}
				trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("sharkteam.user_id", userID))
			case errors.Is(err, session.ErrUnauthenticated):
				s.logger.DebugContext(ctx, "ignoring session cookie", "code", errutil.Code(err))
			default:
				writeError(ctx, w, s.logger, oops.With("operation", "resolve session").Wrap(err))
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(ctx, identity)))
	})
}
