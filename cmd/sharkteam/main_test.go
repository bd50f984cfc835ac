// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile = ""
	t.Setenv("DATABASE_URL", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"serve", "migrate", "user", "config"} {
		assert.Contains(t, out, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFlag string
	}{
		{"separate value", []string{"--config", "/path/to/config.yaml", "--help"}, "/path/to/config.yaml"},
		{"equals", []string{"--config=/etc/sharkteam.yaml", "--help"}, "/etc/sharkteam.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile = ""
			cmd := NewRootCmd()
			cmd.SetOut(new(bytes.Buffer))
			cmd.SetArgs(tt.args)
			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.wantFlag, configFile)
		})
	}
}

func TestRootCommand_ConfigOverrideFlags(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"http-addr", "metrics-addr", "log-format", "log-level", "store-driver", "database-url", "session-backend", "session-ttl", "redis-addrs"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing --%s", name)
	}
}

func TestLoadOptions_FallsBackToXDGConfig(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	require.NoError(t, os.MkdirAll(filepath.Join(base, "sharkteam"), 0o700))
	path := filepath.Join(base, "sharkteam", "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: memory\n"), 0o600))

	cmd := NewRootCmd()
	assert.Equal(t, path, loadOptions(cmd).Path)

	// NewRootCmd resets the flag variable, so set it afterwards.
	configFile = "/explicit.yaml"
	defer func() { configFile = "" }()
	assert.Equal(t, "/explicit.yaml", loadOptions(cmd).Path)
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "nonexistent-command")
	require.Error(t, err)
}

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "dev (commit: unknown, built: unknown)", formatVersion("dev", "unknown", "unknown"))
	assert.Equal(t, "1.0.0 (commit: abc123, built: 2026-01-15)", formatVersion("1.0.0", "abc123", "2026-01-15"))
}

func TestRun(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"sharkteam", "--help"}
	assert.Equal(t, 0, run())

	os.Args = []string{"sharkteam", "nonexistent-command"}
	assert.Equal(t, 1, run())
}
