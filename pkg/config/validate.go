package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Spec.Path == "" {
		errs = append(errs, fmt.Errorf("spec.path is required"))
	}

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	switch c.Security.APIKeys.Store {
	case "none", "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("security.api_keys.store must be \"none\", \"memory\" or \"postgres\", got %q", c.Security.APIKeys.Store))
	}

	if c.Security.APIKeys.Store == "postgres" {
		if c.Security.APIKeys.Postgres.DSN == "" && c.Security.APIKeys.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("security.api_keys.postgres.dsn or dsn_file is required when store is \"postgres\""))
		}
	}

	if c.Security.JWT.Enabled && c.Security.JWT.JWKSURL == "" {
		errs = append(errs, fmt.Errorf("security.jwt.jwks_url is required when security.jwt.enabled is true"))
	}

	if c.Security.Introspection.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("security.introspection.timeout must be > 0"))
	}

	return errors.Join(errs...)
}
