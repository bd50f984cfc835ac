// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package account

import (
	"math"

	"github.com/samber/oops"
)

// Leaderboard page bounds.
const (
	DefaultScoreLimit = 10
	MaxScoreLimit     = 100
)

// MaxScore is the largest score the credential stores hold.
const MaxScore = math.MaxInt32

// RegisterForm carries signup and profile-update input.
type RegisterForm struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate rejects empty fields.
func (f RegisterForm) Validate() error {
	if f.Login == "" {
		return invalidField("login", "login cannot be empty")
	}
	if f.Email == "" {
		return invalidField("email", "email cannot be empty")
	}
	if f.Password == "" {
		return invalidField("password", "password cannot be empty")
	}
	return nil
}

// LoginForm carries signin input.
type LoginForm struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Validate rejects empty fields.
func (f LoginForm) Validate() error {
	if f.Login == "" {
		return invalidField("login", "login cannot be empty")
	}
	if f.Password == "" {
		return invalidField("password", "password cannot be empty")
	}
	return nil
}

// ScoreQuery selects a leaderboard page. A zero Limit means DefaultScoreLimit.
type ScoreQuery struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Normalize validates the query and fills in the default limit.
func (q ScoreQuery) Normalize() (ScoreQuery, error) {
	if q.Offset < 0 {
		return q, invalidField("offset", "offset cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = DefaultScoreLimit
	}
	if q.Limit < 1 || q.Limit > MaxScoreLimit {
		return q, oops.Code(CodeInvalidForm).
			With("field", "limit").
			With("max", MaxScoreLimit).
			Wrapf(ErrValidation, "limit must be between 1 and %d", MaxScoreLimit)
	}
	return q, nil
}

func validateScore(score int) error {
	if score < 0 {
		return invalidField("score", "score cannot be negative")
	}
	if score > MaxScore {
		return oops.Code(CodeInvalidForm).
			With("field", "score").
			With("max", MaxScore).
			Wrapf(ErrValidation, "score cannot exceed %d", MaxScore)
	}
	return nil
}

func invalidField(field, msg string) error {
	return oops.Code(CodeInvalidForm).With("field", field).Wrapf(ErrValidation, "%s", msg)
}
