// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package account

// Identity is the resolved caller of a service operation.
type Identity struct {
	UserID       int64
	SessionToken string
}

// Anonymous is the identity of a caller without a live session.
var Anonymous = Identity{}

// Authenticated reports whether the caller holds a session.
// The bound user may still be gone; see Service.Profile.
func (i Identity) Authenticated() bool {
	return i.SessionToken != ""
}
