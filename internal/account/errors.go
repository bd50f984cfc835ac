// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package account

import "errors"

// Error kinds. Service errors wrap exactly one of these.
var (
	// ErrValidation is returned for malformed or empty input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when a login is already taken.
	ErrConflict = errors.New("conflict")
	// ErrForbidden is returned for authentication and authorization failures.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)

// Error codes carried by service errors.
const (
	CodeAlreadyAuthenticated = "AUTH_ALREADY_AUTHENTICATED"
	CodeUnauthenticated      = "AUTH_UNAUTHENTICATED"
	CodeStaleSession         = "AUTH_STALE_SESSION"
	CodeInvalidCredentials   = "AUTH_INVALID_CREDENTIALS"
	CodeInvalidForm          = "ACCOUNT_INVALID_FORM"
	CodeLoginTaken           = "ACCOUNT_LOGIN_TAKEN"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeInternal             = "ACCOUNT_INTERNAL"
)

// IsClientError reports whether err carries one of the four client-facing kinds.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound)
}
