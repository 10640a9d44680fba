// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ukane-philemon/transcripts/internal/transcript"
)

// Supported DB_DRIVER values.
const (
	DriverMemory   = "memory"
	DriverMongoDB  = "mongodb"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
)

const (
	defaultDBName = "transcripts"
	devDBName     = "dev_transcripts"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// DBDriver selects the persistence backend. memory keeps records for the
	// lifetime of the process only.
	DBDriver string `env:"DB_DRIVER" envDefault:"memory"`
	// DBURL is a connection URL, or a file path for sqlite.
	DBURL string `env:"DB_URL"`
	// DBName is the mongodb database name. Defaults depend on dev mode.
	DBName string `env:"DB_NAME"`

	MinGrade float64 `env:"MIN_GRADE" envDefault:"0"`
	MaxGrade float64 `env:"MAX_GRADE" envDefault:"100"`

	// RateLimit is the number of requests allowed per IP per minute. Zero
	// disables rate limiting.
	RateLimit int `env:"RATE_LIMIT" envDefault:"100"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Dev bool `env:"DEV"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	return cfg, cfg.Validate()
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Port == "" {
		errs = append(errs, "PORT is required")
	}

	switch c.DBDriver {
	case DriverMemory:
	case DriverMongoDB, DriverPostgres, DriverRedis, DriverSQLite:
		if c.DBURL == "" {
			errs = append(errs, fmt.Sprintf("DB_URL is required for DB_DRIVER=%s", c.DBDriver))
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported DB_DRIVER %q", c.DBDriver))
	}

	if _, err := c.GradeBounds(); err != nil {
		errs = append(errs, err.Error())
	}

	if c.RateLimit < 0 {
		errs = append(errs, "RATE_LIMIT must not be negative")
	}

	if c.RequestTimeout <= 0 {
		errs = append(errs, "REQUEST_TIMEOUT must be positive")
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// GradeBounds returns the configured grade range.
func (c *Config) GradeBounds() (transcript.GradeBounds, error) {
	bounds := transcript.GradeBounds{Min: c.MinGrade, Max: c.MaxGrade}
	if c.MinGrade >= c.MaxGrade {
		return bounds, fmt.Errorf("MIN_GRADE (%v) must be lower than MAX_GRADE (%v)", c.MinGrade, c.MaxGrade)
	}
	return bounds, nil
}

// MongoDBName returns DB_NAME, or a default that depends on dev mode.
func (c *Config) MongoDBName() string {
	if c.DBName != "" {
		return c.DBName
	}
	if c.Dev {
		return devDBName
	}
	return defaultDBName
}
