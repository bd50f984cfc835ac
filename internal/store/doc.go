// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

// Package store owns the PostgreSQL side of sharkteam: opening the
// connection pool and applying the embedded schema migrations.
package store
