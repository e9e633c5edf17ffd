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
//  2. YAML config file (explicit path, SPECGATE_CONFIG env, ./config.yaml, /etc/specgate/config.yaml)
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

	applyEnvOverrides(&cfg)

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
// 2. SPECGATE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/specgate/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("SPECGATE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/specgate/config.yaml",
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

// applyEnvOverrides maps SPECGATE_* environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPECGATE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SPECGATE_SPEC"); v != "" {
		cfg.Spec.Path = v
	}
	if v := os.Getenv("SPECGATE_SPEC_SERVE_PATH"); v != "" {
		cfg.Spec.ServePath = v
	}
	if v := os.Getenv("SPECGATE_INTROSPECTION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Security.Introspection.Timeout = d
		}
	}
	if v := os.Getenv("SPECGATE_APIKEY_STORE"); v != "" {
		cfg.Security.APIKeys.Store = v
	}
	if v := os.Getenv("SPECGATE_JWKS_URL"); v != "" {
		cfg.Security.JWT.Enabled = true
		cfg.Security.JWT.JWKSURL = v
	}
	if v := os.Getenv("SPECGATE_METRICS"); v != "" {
		cfg.Observability.Metrics.Enabled = v == "true" || v == "1"
	}
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. For each field ending in _file, if the value field is empty
// and the file field is set, the file is read, whitespace is trimmed, and
// the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// security.api_keys.postgres.dsn_file -> dsn
	pg := &cfg.Security.APIKeys.Postgres
	if pg.DSNFile != "" && pg.DSN == "" {
		val, err := readSecretFile(pg.DSNFile)
		if err != nil {
			return fmt.Errorf("security.api_keys.postgres.dsn_file: %w", err)
		}
		pg.DSN = val
	}

	// security.api_keys.keys[*].key_file -> key
	for i := range cfg.Security.APIKeys.Keys {
		entry := &cfg.Security.APIKeys.Keys[i]
		if entry.KeyFile != "" && entry.Key == "" {
			val, err := readSecretFile(entry.KeyFile)
			if err != nil {
				return fmt.Errorf("security.api_keys.keys[%d].key_file: %w", i, err)
			}
			entry.Key = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
