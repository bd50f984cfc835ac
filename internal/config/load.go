// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package config

import (
	"errors"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/sharkteam/sharkteam/internal/session"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"http-addr":       "http.addr",
	"metrics-addr":    "metrics.addr",
	"log-format":      "log.format",
	"log-level":       "log.level",
	"store-driver":    "store.driver",
	"auto-migrate":    "store.auto_migrate",
	"database-url":    "database.url",
	"session-backend": "session.backend",
	"session-ttl":     "session.ttl",
	"redis-addrs":     "redis.addrs",
}

// BindFlags registers the overridable settings on fs. Only flags the user
// actually sets take part in Load, so their defaults here are cosmetic.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", ":8080", "API listen address")
	fs.String("metrics-addr", "127.0.0.1:9100", "metrics/health address (empty = disabled)")
	fs.String("log-format", "json", "log format (json or text)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("store-driver", DriverPostgres, "credential store (postgres or memory)")
	fs.Bool("auto-migrate", true, "apply pending migrations on start")
	fs.String("database-url", "", "PostgreSQL URL (default: $DATABASE_URL)")
	fs.String("session-backend", BackendMemory, "session registry (memory or redis)")
	fs.Duration("session-ttl", session.DefaultTTL, "session lifetime")
	fs.StringSlice("redis-addrs", []string{"127.0.0.1:6379"}, "redis addresses")
}

// LoadOptions selects the configuration sources.
type LoadOptions struct {
	// Path is a YAML file. Empty skips the file layer.
	Path string
	// Flags are the parsed command-line flags. Nil skips the flag layer.
	Flags *pflag.FlagSet
	// Getenv reads the environment. Defaults to os.Getenv.
	Getenv func(string) string
}

// Load merges defaults, file and flags and validates the result.
func Load(opts LoadOptions) (*Config, error) {
	k, err := load(opts)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without validating it.
func Default() *Config {
	k := koanf.New(".")
	var cfg Config
	// Both steps only fail on programming errors in defaults().
	if err := k.Load(mapProvider(defaults), nil); err != nil {
		panic(err)
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		panic(err)
	}
	return &cfg
}

// Render returns the merged configuration as YAML, without validating it.
func Render(opts LoadOptions) ([]byte, error) {
	k, err := load(opts)
	if err != nil {
		return nil, err
	}
	out, err := k.Marshal(yaml.Parser())
	if err != nil {
		return nil, oops.Code("CONFIG_RENDER_FAILED").Wrap(err)
	}
	return out, nil
}

func load(opts LoadOptions) (*koanf.Koanf, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	k := koanf.New(".")
	if err := k.Load(mapProvider(defaults), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "defaults").Wrap(err)
	}

	if opts.Path != "" {
		if err := k.Load(file.Provider(opts.Path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("layer", "file").
				With("path", opts.Path).
				Wrap(err)
		}
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "flags").Wrap(err)
		}
	}

	if k.String("database.url") == "" {
		if url := getenv("DATABASE_URL"); url != "" {
			if err := k.Set("database.url", url); err != nil {
				return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "env").Wrap(err)
			}
		}
	}
	return k, nil
}

// mapProvider feeds a freshly built nested map to koanf.
type mapProvider func() map[string]any

func (p mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("map provider does not support ReadBytes")
}

func (p mapProvider) Read() (map[string]any, error) {
	return p(), nil
}
