// Package config provides unified configuration for the scribe API server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (SCRIBE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the scribe API server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: true
}

// AuthConfig holds token issuance and verification settings.
// Secret has no default: startup fails if it is unset.
type AuthConfig struct {
	Secret       string        `yaml:"secret"`
	SecretFile   string        `yaml:"secret_file"`   // _file variant for secret
	TokenCarrier string        `yaml:"token_carrier"` // "cookie" or "header", default: "cookie"
	TokenTTL     time.Duration `yaml:"token_ttl"`     // default: 20m
}

// RateLimitConfig holds per-client throttle settings.
type RateLimitConfig struct {
	Interval time.Duration `yaml:"interval"` // default: 1s
	MaxKeys  int           `yaml:"max_keys"` // default: 100000

	// TrustForwardedFor derives the client key from the first
	// X-Forwarded-For hop. Enable only behind a trusted proxy.
	TrustForwardedFor bool `yaml:"trust_forwarded_for"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns:       25,
				MigrateOnStart: true,
			},
		},
		Auth: AuthConfig{
			TokenCarrier: "cookie",
			TokenTTL:     20 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Interval: time.Second,
			MaxKeys:  100000,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
