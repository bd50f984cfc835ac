// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

// Package account implements user accounts for sharkteam: registration,
// credential checks, profile changes and scores.
//
// # Error kinds
//
// Every error a Service returns to a caller is an oops error wrapping exactly
// one of ErrValidation, ErrConflict, ErrForbidden or ErrNotFound. Use errors.Is
// to classify it and the oops code to learn the precise cause. Errors that wrap
// none of the four are internal failures (store unavailable, hashing failure)
// and carry the code ACCOUNT_INTERNAL.
//
// # Anti-enumeration
//
// Authenticate reports an unknown login and a wrong password with the same
// code (AUTH_INVALID_CREDENTIALS) and the same kind (ErrNotFound). Unknown
// logins are verified against a dummy hash so both paths cost one argon2id
// computation.
//
// # Identity
//
// The caller is always passed explicitly as an Identity. The HTTP gateway
// resolves it from the session cookie; the CLI uses Anonymous or calls the
// store-facing helpers (AddUser, UserByLogin, SetScore) directly.
package account
