// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/samber/oops"

	"github.com/sharkteam/sharkteam/internal/account"
)

const maxBodyBytes = 1 << 20

// scoreSubmission is the POST /api/users/score body.
type scoreSubmission struct {
	Score *int `json:"score"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if caller := IdentityFrom(r.Context()); caller.Authenticated() {
		writeError(r.Context(), w, s.logger, account.AlreadyAuthenticated(caller))
		return
	}
	var form account.RegisterForm
	if err := decodeBody(w, r, &form); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	profile, token, err := s.svc.Register(r.Context(), IdentityFrom(r.Context()), form)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	if caller := IdentityFrom(r.Context()); caller.Authenticated() {
		writeError(r.Context(), w, s.logger, account.AlreadyAuthenticated(caller))
		return
	}
	var form account.LoginForm
	if err := decodeBody(w, r, &form); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	profile, token, err := s.svc.Authenticate(r.Context(), IdentityFrom(r.Context()), form)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Logout(r.Context(), IdentityFrom(r.Context())); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.svc.Profile(r.Context(), IdentityFrom(r.Context()))
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var form account.RegisterForm
	if err := decodeBody(w, r, &form); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	profile, err := s.svc.UpdateProfile(r.Context(), IdentityFrom(r.Context()), form)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	q, err := scoreQuery(w, r)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	board, err := s.svc.Score(r.Context(), IdentityFrom(r.Context()), q)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var body scoreSubmission
	if err := decodeBody(w, r, &body); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	if body.Score == nil {
		writeError(r.Context(), w, s.logger,
			oops.Code(account.CodeInvalidForm).With("field", "score").Wrapf(account.ErrValidation, "score is required"))
		return
	}
	profile, err := s.svc.SubmitScore(r.Context(), IdentityFrom(r.Context()), *body.Score)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: "ROUTE_NOT_FOUND", Message: "no such endpoint"})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "METHOD_NOT_ALLOWED", Message: r.Method + " is not supported here"})
}

// decodeBody reads one JSON value. Unknown fields are ignored because
// clients reuse the signup form for signin.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return malformed(err)
	}
	return nil
}

// scoreQuery reads offset and limit from the query string, or from a JSON
// body when the query string has neither.
func scoreQuery(w http.ResponseWriter, r *http.Request) (account.ScoreQuery, error) {
	var q account.ScoreQuery
	values := r.URL.Query()
	if values.Has("offset") || values.Has("limit") {
		var err error
		if q.Offset, err = intParam(values.Get("offset"), "offset"); err != nil {
			return q, err
		}
		if q.Limit, err = intParam(values.Get("limit"), "limit"); err != nil {
			return q, err
		}
		return q, nil
	}

	if r.Body == nil || r.Body == http.NoBody {
		return q, nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&q); err != nil && !errors.Is(err, io.EOF) {
		return q, malformed(err)
	}
	return q, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, oops.Code(account.CodeInvalidForm).
			With("field", name).
			Wrapf(account.ErrValidation, "%s must be an integer", name)
	}
	return n, nil
}
