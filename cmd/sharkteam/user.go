// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package main

import (
	"encoding/json"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/sharkteam/sharkteam/internal/account"
)

// userStoreFactory is swapped out in tests.
var userStoreFactory = openUserStore

// NewUserCmd creates the user administration command group.
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administer accounts directly in the credential store",
	}
	cmd.AddCommand(newUserCreateCmd(), newUserScoreCmd(), newUserShowCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var login, email, password string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *account.Service) error {
				id, err := svc.AddUser(cmd.Context(), login, email, password)
				if err != nil {
					return err
				}
				cmd.Printf("Created user %q with id %d\n", login, id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&login, "login", "", "account login")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newUserScoreCmd() *cobra.Command {
	var login string
	var value int
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Set the score of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("value") {
				return oops.Code(account.CodeInvalidForm).With("field", "value").Wrapf(account.ErrValidation, "--value is required")
			}
			return withService(cmd, func(svc *account.Service) error {
				u, err := svc.UserByLogin(cmd.Context(), login)
				if err != nil {
					return err
				}
				if err := svc.SetScore(cmd.Context(), u.ID, value); err != nil {
					return err
				}
				cmd.Printf("Score of %q set to %d\n", login, value)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&login, "login", "", "account login")
	cmd.Flags().IntVar(&value, "value", 0, "new score")
	return cmd
}

func newUserShowCmd() *cobra.Command {
	var login string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print an account profile as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *account.Service) error {
				u, err := svc.UserByLogin(cmd.Context(), login)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(u.Profile())
			})
		},
	}
	cmd.Flags().StringVar(&login, "login", "", "account login")
	return cmd
}

func withService(cmd *cobra.Command, fn func(*account.Service) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	svc, closeStore, err := openService(cmd.Context(), cfg, logger, userStoreFactory)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(svc)
}
