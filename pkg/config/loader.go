package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, SCRIBE_CONFIG env, ./config.yaml, /etc/scribe/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. SCRIBE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/scribe/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("SCRIBE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/scribe/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps SCRIBE_* environment variables to config fields.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SCRIBE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SCRIBE_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("SCRIBE_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("SCRIBE_DATABASE_URL"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("SCRIBE_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("SCRIBE_TOKEN_CARRIER"); v != "" {
		cfg.Auth.TokenCarrier = v
	}
	if v := os.Getenv("SCRIBE_TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SCRIBE_TOKEN_TTL %q: %w", v, err)
		}
		cfg.Auth.TokenTTL = ttl
	}
	if v := os.Getenv("SCRIBE_TRUST_FORWARDED_FOR"); v != "" {
		cfg.RateLimit.TrustForwardedFor = strings.EqualFold(v, "true") || v == "1"
	}
	return nil
}

// resolveFileReferences reads _file variant fields into their targets.
// A set inline value takes priority over the file reference.
func resolveFileReferences(cfg *Config) error {
	if cfg.Auth.Secret == "" && cfg.Auth.SecretFile != "" {
		data, err := os.ReadFile(cfg.Auth.SecretFile)
		if err != nil {
			return fmt.Errorf("reading auth.secret_file: %w", err)
		}
		cfg.Auth.Secret = strings.TrimSpace(string(data))
	}

	if cfg.Storage.Postgres.DSN == "" && cfg.Storage.Postgres.DSNFile != "" {
		data, err := os.ReadFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("reading storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = strings.TrimSpace(string(data))
	}

	return nil
}
