// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

// Package config loads sharkteam's configuration from built-in defaults,
// an optional YAML file and command-line flags, in that order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/sharkteam/sharkteam/internal/account"
	"github.com/sharkteam/sharkteam/internal/logging"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the complete service configuration.
type Config struct {
	HTTP     HTTPConfig           `koanf:"http" json:"http"`
	Metrics  MetricsConfig        `koanf:"metrics" json:"metrics"`
	Log      LogConfig            `koanf:"log" json:"log"`
	Store    StoreConfig          `koanf:"store" json:"store"`
	Database DatabaseConfig       `koanf:"database" json:"database"`
	Session  SessionConfig        `koanf:"session" json:"session"`
	Redis    RedisConfig          `koanf:"redis" json:"redis"`
	Hasher   account.HasherParams `koanf:"hasher" json:"hasher"`
}

// HTTPConfig configures the API listener and the session cookie.
type HTTPConfig struct {
	Addr              string        `koanf:"addr" json:"addr" jsonschema:"minLength=1"`
	CookieName        string        `koanf:"cookie_name" json:"cookie_name" jsonschema:"minLength=1"`
	CookieSecure      bool          `koanf:"cookie_secure" json:"cookie_secure"`
	AllowedOrigins    []string      `koanf:"allowed_origins" json:"allowed_origins" jsonschema:"description=Glob patterns of browser origins allowed to call the API"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" json:"read_header_timeout" jsonschema:"type=string"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout" jsonschema:"type=string"`
}

// MetricsConfig configures the observability listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format" json:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// StoreConfig selects the credential store.
type StoreConfig struct {
	Driver      string `koanf:"driver" json:"driver" jsonschema:"enum=postgres,enum=memory"`
	AutoMigrate bool   `koanf:"auto_migrate" json:"auto_migrate"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL            string `koanf:"url" json:"url"`
	ConnectRetries uint64 `koanf:"connect_retries" json:"connect_retries"`
}

// SessionConfig selects and tunes the session registry.
type SessionConfig struct {
	Backend       string        `koanf:"backend" json:"backend" jsonschema:"enum=memory,enum=redis"`
	TTL           time.Duration `koanf:"ttl" json:"ttl" jsonschema:"type=string"`
	SweepInterval time.Duration `koanf:"sweep_interval" json:"sweep_interval" jsonschema:"type=string"`
}

// RedisConfig configures the redis session backend. A non-empty MasterName
// switches the client to sentinel failover.
type RedisConfig struct {
	Addrs      []string `koanf:"addrs" json:"addrs"`
	MasterName string   `koanf:"master_name" json:"master_name"`
	DB         int      `koanf:"db" json:"db" jsonschema:"minimum=0"`
	Password   string   `koanf:"password" json:"password"`
	Prefix     string   `koanf:"prefix" json:"prefix"`
}

// defaults is the lowest configuration layer. Durations are strings so
// `config show` prints them the way a user writes them.
func defaults() map[string]any {
	hp := account.DefaultHasherParams()
	return map[string]any{
		"http": map[string]any{
			"addr":                ":8080",
			"cookie_name":         "SHARKSESSION",
			"cookie_secure":       false,
			"allowed_origins":     []any{"http://localhost:*"},
			"read_header_timeout": "10s",
			"shutdown_timeout":    "5s",
		},
		"metrics": map[string]any{
			"addr": "127.0.0.1:9100",
		},
		"log": map[string]any{
			"format": "json",
			"level":  "info",
		},
		"store": map[string]any{
			"driver":       DriverPostgres,
			"auto_migrate": true,
		},
		"database": map[string]any{
			"url":             "",
			"connect_retries": 5,
		},
		"session": map[string]any{
			"backend":        BackendMemory,
			"ttl":            "24h",
			"sweep_interval": "1m",
		},
		"redis": map[string]any{
			"addrs":       []any{"127.0.0.1:6379"},
			"master_name": "",
			"db":          0,
			"password":    "",
			"prefix":      "sharkteam:",
		},
		"hasher": map[string]any{
			"time":       int(hp.Time),
			"memory_kib": int(hp.MemoryKiB),
			"threads":    int(hp.Threads),
		},
	}
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.HTTP.Addr == "" {
		add("http.addr is required")
	}
	if c.HTTP.CookieName == "" || strings.ContainsAny(c.HTTP.CookieName, " ;=,\t") {
		add("http.cookie_name %q is not a valid cookie name", c.HTTP.CookieName)
	}
	for _, origin := range c.HTTP.AllowedOrigins {
		if _, err := glob.Compile(origin); err != nil {
			add("http.allowed_origins: bad pattern %q", origin)
		}
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		add("http.shutdown_timeout must be positive")
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		add("log.format must be json or text, got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log.level %q is not a level", c.Log.Level)
	}

	switch c.Store.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			add("database.url (or DATABASE_URL) is required for the postgres store")
		}
	case DriverMemory:
	default:
		add("store.driver must be postgres or memory, got %q", c.Store.Driver)
	}

	switch c.Session.Backend {
	case BackendRedis:
		if len(c.Redis.Addrs) == 0 {
			add("redis.addrs is required for the redis session backend")
		}
	case BackendMemory:
	default:
		add("session.backend must be memory or redis, got %q", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		add("session.ttl must be positive")
	}
	if c.Session.SweepInterval < 0 {
		add("session.sweep_interval must not be negative")
	}

	if err := c.Hasher.Validate(); err != nil {
		add("hasher: time and threads must be at least 1 and memory_kib at least 8 per thread")
	}

	if len(problems) > 0 {
		return oops.Code("CONFIG_INVALID").
			With("problems", problems).
			Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
