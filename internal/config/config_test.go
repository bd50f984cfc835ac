// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharkteam/sharkteam/pkg/errutil"
)

func noEnv(string) string { return "" }

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sharkteam.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "SHARKSESSION", cfg.HTTP.CookieName)
	assert.Equal(t, []string{"http://localhost:*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadHeaderTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.True(t, cfg.Store.AutoMigrate)
	assert.Equal(t, uint32(65536), cfg.Hasher.MemoryKiB)
	assert.Equal(t, "sharkteam:", cfg.Redis.Prefix)
}

func TestLoad_DefaultsNeedDatabaseURL(t *testing.T) {
	_, err := Load(LoadOptions{Getenv: noEnv})
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Contains(t, err.Error(), "database.url")
}

func TestLoad_DatabaseURLFromEnvironment(t *testing.T) {
	cfg, err := Load(LoadOptions{Getenv: func(key string) string {
		if key == "DATABASE_URL" {
			return "postgres://env/sharkteam"
		}
		return ""
	}})
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/sharkteam", cfg.Database.URL)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
http:
  addr: ":9999"
  allowed_origins: ["https://*.example.com"]
store:
  driver: memory
session:
  backend: redis
  ttl: 2h
redis:
  addrs: ["redis:6379"]
`)
	cfg, err := Load(LoadOptions{Path: path, Getenv: noEnv})
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, []string{"https://*.example.com"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "SHARKSESSION", cfg.HTTP.CookieName, "unset keys keep defaults")
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, BackendRedis, cfg.Session.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"redis:6379"}, cfg.Redis.Addrs)
}

func TestLoad_FileDatabaseURLBeatsEnvironment(t *testing.T) {
	path := writeFile(t, "database:\n  url: postgres://file/db\n")
	cfg, err := Load(LoadOptions{Path: path, Getenv: func(string) string { return "postgres://env/db" }})
	require.NoError(t, err)
	assert.Equal(t, "postgres://file/db", cfg.Database.URL)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "http:\n  addr: \":7000\"\nlog:\n  level: warn\nstore:\n  driver: memory\n")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--http-addr", ":7001", "--session-ttl", "30m"}))

	cfg, err := Load(LoadOptions{Path: path, Flags: fs, Getenv: noEnv})
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "warn", cfg.Log.Level, "unchanged flags must not clobber the file")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(LoadOptions{Path: filepath.Join(t.TempDir(), "nope.yaml"), Getenv: noEnv})
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
	errutil.AssertErrorContext(t, err, "layer", "file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad driver", func(c *Config) { c.Store.Driver = "sqlite" }, "store.driver"},
		{"bad backend", func(c *Config) { c.Session.Backend = "memcached" }, "session.backend"},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, "session.ttl"},
		{"negative sweep", func(c *Config) { c.Session.SweepInterval = -time.Second }, "sweep_interval"},
		{"redis without addrs", func(c *Config) { c.Session.Backend = BackendRedis; c.Redis.Addrs = nil }, "redis.addrs"},
		{"cookie name with separator", func(c *Config) { c.HTTP.CookieName = "a;b" }, "cookie_name"},
		{"bad origin glob", func(c *Config) { c.HTTP.AllowedOrigins = []string{"http://[a"} }, "allowed_origins"},
		{"bad hasher", func(c *Config) { c.Hasher.Threads = 0 }, "hasher"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Store.Driver = DriverMemory
			tt.mutate(cfg)
			err := cfg.Validate()
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("memory defaults are valid", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Driver = DriverMemory
		assert.NoError(t, cfg.Validate())
	})
}

func TestRender(t *testing.T) {
	out, err := Render(LoadOptions{Getenv: noEnv})
	require.NoError(t, err)
	assert.Contains(t, string(out), "cookie_name: SHARKSESSION")
	assert.Contains(t, string(out), "ttl: 24h")
}
