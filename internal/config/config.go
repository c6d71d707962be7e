// Package config holds the process configuration: defaults, an optional
// YAML file, then command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  Server  `yaml:"server"`
	GraphQL GraphQL `yaml:"graphql"`
	Store   Store   `yaml:"store"`
	Otel    Otel    `yaml:"otel"`
	Metrics Metrics `yaml:"metrics"`
	Log     Log     `yaml:"log"`
}

type Server struct {
	Addr         string        `yaml:"addr"`
	Timeout      time.Duration `yaml:"timeout"`
	Pretty       bool          `yaml:"pretty"`
	MaxBodyBytes int64         `yaml:"max-body-bytes"`
	CORS         []string      `yaml:"cors"`
}

type GraphQL struct {
	MaxDepth int `yaml:"max-depth"`
	// MaxBatch caps keys per loader call; 0 means unlimited.
	MaxBatch int `yaml:"max-batch"`
}

type Store struct {
	Driver    string        `yaml:"driver"`
	DSN       string        `yaml:"dsn"`
	SlowQuery time.Duration `yaml:"slow-query"`
	// Migrate runs the schema migration on startup.
	Migrate bool `yaml:"migrate"`
}

type Otel struct {
	Endpoint string `yaml:"endpoint"`
	Service  string `yaml:"service"`
}

type Metrics struct {
	Enabled bool `yaml:"enabled"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration: an in-memory SQLite store
// migrated on startup.
func Default() Config {
	return Config{
		Server: Server{
			Addr:         ":8080",
			Timeout:      10 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		GraphQL: GraphQL{MaxDepth: 5},
		Store: Store{
			Driver:    "sqlite",
			DSN:       "file:membergraph?mode=memory&cache=shared&_pragma=foreign_keys(1)",
			SlowQuery: 200 * time.Millisecond,
			Migrate:   true,
		},
		Otel:    Otel{Service: "membergraph"},
		Metrics: Metrics{Enabled: true},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// LoadFile merges the YAML document at path into c. Keys absent from the
// file keep their current values; unknown keys are an error.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// Bind registers one flag per key on fs, defaulting to the current values.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Server.Addr, "server.addr", c.Server.Addr, "HTTP listen address")
	fs.DurationVar(&c.Server.Timeout, "server.timeout", c.Server.Timeout, "Per-request timeout")
	fs.BoolVar(&c.Server.Pretty, "server.pretty", c.Server.Pretty, "Pretty-print JSON responses")
	fs.Int64Var(&c.Server.MaxBodyBytes, "server.max-body-bytes", c.Server.MaxBodyBytes, "Request body limit")
	corsSet := false
	fs.Func("server.cors", "Allowed CORS origin. Repeatable", func(v string) error {
		// flags replace the file's list rather than extend it
		if !corsSet {
			c.Server.CORS, corsSet = nil, true
		}
		c.Server.CORS = append(c.Server.CORS, v)
		return nil
	})
	fs.IntVar(&c.GraphQL.MaxDepth, "graphql.max-depth", c.GraphQL.MaxDepth, "Maximum operation depth")
	fs.IntVar(&c.GraphQL.MaxBatch, "graphql.max-batch", c.GraphQL.MaxBatch, "Maximum keys per loader call")
	fs.StringVar(&c.Store.Driver, "store.driver", c.Store.Driver, "sqlite, postgres or mysql")
	fs.StringVar(&c.Store.DSN, "store.dsn", c.Store.DSN, "Database DSN")
	fs.DurationVar(&c.Store.SlowQuery, "store.slow-query", c.Store.SlowQuery, "Log statements slower than this")
	fs.BoolVar(&c.Store.Migrate, "store.migrate", c.Store.Migrate, "Migrate the database on startup")
	fs.StringVar(&c.Otel.Endpoint, "otel.endpoint", c.Otel.Endpoint, "OTLP collector endpoint")
	fs.StringVar(&c.Otel.Service, "otel.service", c.Otel.Service, "OpenTelemetry service name")
	fs.BoolVar(&c.Metrics.Enabled, "metrics.enabled", c.Metrics.Enabled, "Serve /metrics")
	fs.StringVar(&c.Log.Level, "log.level", c.Log.Level, "debug, info, warn or error")
	fs.StringVar(&c.Log.Format, "log.format", c.Log.Format, "text or json")
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}
	if c.Store.DSN == "" {
		errs = append(errs, errors.New("store.dsn: required"))
	}
	if c.GraphQL.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("graphql.max-depth: must be positive, got %d", c.GraphQL.MaxDepth))
	}
	if c.GraphQL.MaxBatch < 0 {
		errs = append(errs, fmt.Errorf("graphql.max-batch: must not be negative, got %d", c.GraphQL.MaxBatch))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Logger builds the slog logger described by c.Log, writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("log.level: unknown level %q", s)
	}
	return l, nil
}
