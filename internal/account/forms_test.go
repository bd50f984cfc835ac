// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package account_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharkteam/sharkteam/internal/account"
	"github.com/sharkteam/sharkteam/pkg/errutil"
)

func TestRegisterForm_Validate(t *testing.T) {
	tests := []struct {
		name  string
		form  account.RegisterForm
		field string
	}{
		{"all empty", account.RegisterForm{}, "login"},
		{"empty email", account.RegisterForm{Login: "l", Password: "p"}, "email"},
		{"empty password", account.RegisterForm{Login: "l", Email: "e"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			errutil.AssertErrorKind(t, err, account.ErrValidation, account.CodeInvalidForm)
			errutil.AssertErrorContext(t, err, "field", tt.field)
		})
	}

	require.NoError(t, account.RegisterForm{Login: "l", Email: "e", Password: "p"}.Validate())
}

func TestLoginForm_Validate(t *testing.T) {
	err := account.LoginForm{}.Validate()
	errutil.AssertErrorKind(t, err, account.ErrValidation, account.CodeInvalidForm)

	err = account.LoginForm{Login: "l"}.Validate()
	errutil.AssertErrorContext(t, err, "field", "password")

	require.NoError(t, account.LoginForm{Login: "l", Password: "p"}.Validate())
}

func TestScoreQuery_Normalize(t *testing.T) {
	q, err := account.ScoreQuery{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, account.ScoreQuery{Offset: 0, Limit: account.DefaultScoreLimit}, q)

	q, err = account.ScoreQuery{Offset: 3, Limit: 100}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 100, q.Limit)

	for _, bad := range []account.ScoreQuery{{Offset: -1}, {Limit: -1}, {Limit: 101}} {
		_, err := bad.Normalize()
		errutil.AssertErrorKind(t, err, account.ErrValidation, account.CodeInvalidForm)
	}
}

func TestIdentity_Authenticated(t *testing.T) {
	assert.False(t, account.Anonymous.Authenticated())
	assert.True(t, account.Identity{UserID: -1, SessionToken: "t"}.Authenticated())
}

func TestIsClientError(t *testing.T) {
	assert.True(t, account.IsClientError(account.RegisterForm{}.Validate()))
	assert.False(t, account.IsClientError(assert.AnError))
}
