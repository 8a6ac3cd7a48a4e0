package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// auth.secret is required; there is deliberately no default so a
	// deployment cannot run with a known signing key.
	if c.Auth.Secret == "" {
		errs = append(errs, fmt.Errorf("auth.secret is required (set SCRIBE_SECRET or auth.secret_file)"))
	}

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	switch c.Auth.TokenCarrier {
	case "cookie", "header":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.token_carrier must be \"cookie\" or \"header\", got %q", c.Auth.TokenCarrier))
	}

	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL))
	}

	if c.RateLimit.Interval <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.interval must be positive, got %s", c.RateLimit.Interval))
	}

	return errors.Join(errs...)
}
