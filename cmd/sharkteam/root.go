// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/sharkteam/sharkteam/internal/config"
	"github.com/sharkteam/sharkteam/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the sharkteam CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sharkteam",
		Short: "sharkteam - account service for the shark team game",
		Long: `sharkteam serves the user account API: signup, signin, logout,
profile management and the score leaderboard.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/sharkteam/config.yaml if present)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUserCmd())
	cmd.AddCommand(NewConfigCmd())

	return cmd
}

// loadConfig merges defaults, the config file and any flags set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(loadOptions(cmd))
}

func loadOptions(cmd *cobra.Command) config.LoadOptions {
	path := configFile
	if path == "" {
		path = xdg.DefaultConfigFile()
	}
	return config.LoadOptions{Path: path, Flags: cmd.Flags()}
}
