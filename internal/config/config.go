// Package config provides centralized configuration management for the
// import service. Settings come from environment variables with defaults
// and are validated on startup so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"

	"github.com/JonMunkholm/solarimport/internal/importer"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Schemas  SchemasConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 2m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"2m"`
}

// DatabaseConfig selects and tunes the record store.
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite" (default: sqlite)
	Driver string `env:"DB_DRIVER" default:"sqlite"`

	// URL is a PostgreSQL connection string or a SQLite file path.
	// Supports both DATABASE_URL and DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" default:"imports.db"`

	// Pool settings apply to postgres only.
	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig bounds uploads and import jobs.
type ImportConfig struct {
	// MaxFileSize in bytes (default: 10MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"10485760"`

	MaxRows         int `env:"IMPORT_MAX_ROWS" default:"10000"`
	MaxCustomFields int `env:"IMPORT_MAX_CUSTOM_FIELDS" default:"20"`
	MaxFieldSize    int `env:"IMPORT_MAX_FIELD_SIZE" default:"1000"`

	// ImportsPerHour is the per-tenant job quota; 0 disables it (default: 5)
	ImportsPerHour int `env:"IMPORT_PER_HOUR" default:"5"`

	// MaxConcurrent is the maximum number of jobs running at once (default: 5)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a job waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single job (default: 10m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"10m"`

	// JobRetention is how long job history is kept; 0 keeps it forever (default: 90 days)
	JobRetention time.Duration `env:"IMPORT_JOB_RETENTION" default:"2160h"`

	// RetentionInterval is how often expired jobs are pruned (default: 24h)
	RetentionInterval time.Duration `env:"IMPORT_RETENTION_INTERVAL" default:"24h"`
}

// Limits converts the configured bounds to importer.Limits.
func (c ImportConfig) Limits() importer.Limits {
	return importer.Limits{
		MaxFileSize:     c.MaxFileSize,
		MaxRows:         c.MaxRows,
		MaxCustomFields: c.MaxCustomFields,
		MaxFieldSize:    c.MaxFieldSize,
		ImportsPerHour:  c.ImportsPerHour,
	}
}

// RateLimitConfig holds HTTP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ImportLimit is requests per minute for upload endpoints (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey enables X-API-Key auth on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// SchemasConfig locates declarative schema files.
type SchemasConfig struct {
	// Dir holds *.yaml schema definitions loaded at startup; empty skips loading
	Dir string `env:"SCHEMAS_DIR"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
