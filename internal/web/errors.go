// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/sharkteam/sharkteam/internal/account"
	"github.com/sharkteam/sharkteam/pkg/errutil"
)

// CodeMalformedBody marks a request body that is not the expected JSON.
const CodeMalformedBody = "REQUEST_MALFORMED"

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, account.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, account.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, account.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, account.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Errors without a client kind are logged and
// reported as a bare internal error.
func writeError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	status := StatusFor(err)
	body := errorBody{Error: account.CodeInternal, Message: "internal error"}
	if account.IsClientError(err) {
		body = errorBody{Error: errutil.Code(err), Message: clientMessage(err)}
	} else {
		errutil.LogErrorContext(ctx, logger, "request failed", err)
	}
	writeJSON(w, status, body)
}

// clientMessage drops the kind suffix oops appends when wrapping a sentinel.
func clientMessage(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Public() != "" {
		return oopsErr.Public()
	}
	msg := err.Error()
	for _, kind := range []error{account.ErrValidation, account.ErrForbidden, account.ErrNotFound, account.ErrConflict} {
		if trimmed, ok := strings.CutSuffix(msg, ": "+kind.Error()); ok {
			return trimmed
		}
	}
	return msg
}

func malformed(err error) error {
	return oops.Code(CodeMalformedBody).
		With("cause", err.Error()).
		Wrapf(account.ErrValidation, "request body is not valid JSON")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may have gone away
	json.NewEncoder(w).Encode(v)
}
