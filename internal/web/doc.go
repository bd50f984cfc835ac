// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

// Package web exposes the account service as a JSON HTTP API under /api/users.
//
// Every request passes through the same chain: request id, tracing, access
// log and metrics, then panic recovery, CORS, and finally session
// resolution, which turns the session cookie into an account.Identity.
package web
