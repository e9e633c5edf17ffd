// Package config provides unified configuration for the specgate gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (SPECGATE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the specgate gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Spec          SpecConfig          `yaml:"spec"`
	Security      SecurityConfig      `yaml:"security"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 60s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

// SpecConfig locates the OpenAPI document and where it is served back.
type SpecConfig struct {
	Path      string `yaml:"path"`       // required: path to the OpenAPI YAML file
	ServePath string `yaml:"serve_path"` // default: "/openapi.json"
}

// SecurityConfig holds verification pipeline settings.
type SecurityConfig struct {
	Introspection IntrospectionConfig `yaml:"introspection"`
	JWT           JWTConfig           `yaml:"jwt"`
	APIKeys       APIKeysConfig       `yaml:"api_keys"`
}

// IntrospectionConfig tunes the remote token-info client. These are fixed
// operational parameters, never adjusted per request.
type IntrospectionConfig struct {
	Timeout  time.Duration `yaml:"timeout"`   // default: 5s
	PoolSize int           `yaml:"pool_size"` // default: 100
}

// JWTConfig enables the built-in "jwt" token-info function.
type JWTConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Issuer   string        `yaml:"issuer"`
	Audience string        `yaml:"audience"`
	JWKSURL  string        `yaml:"jwks_url"`
	CacheTTL time.Duration `yaml:"cache_ttl"` // default: 1h
}

// APIKeysConfig enables the built-in "keystore" apikey-info function.
type APIKeysConfig struct {
	// Store selects the backing store: "none", "memory" or "postgres".
	Store string `yaml:"store"` // default: "none"

	// Keys are the entries for the memory store.
	Keys []APIKeyEntry `yaml:"keys"`

	Postgres PostgresConfig `yaml:"postgres"`
}

// APIKeyEntry describes a single API key for the memory store.
type APIKeyEntry struct {
	Key     string   `yaml:"key"`
	KeyFile string   `yaml:"key_file"` // _file variant for key
	Subject string   `yaml:"subject"`
	Scopes  []string `yaml:"scopes"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"` // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
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
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Spec: SpecConfig{
			ServePath: "/openapi.json",
		},
		Security: SecurityConfig{
			Introspection: IntrospectionConfig{
				Timeout:  5 * time.Second,
				PoolSize: 100,
			},
			JWT: JWTConfig{
				CacheTTL: 1 * time.Hour,
			},
			APIKeys: APIKeysConfig{
				Store: "none",
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
