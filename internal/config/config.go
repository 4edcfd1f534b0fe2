// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/database"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Env      string          `env:"APP_ENV" envDefault:"development"`
	Port     string          `env:"PORT" envDefault:"8080"`
	LogLevel string          `env:"LOG_LEVEL" envDefault:"info"`
	Database database.Config `envPrefix:"DB_"`
	JWT      JWTConfig       `envPrefix:"JWT_"`
	Seed     SeedConfig      `envPrefix:"SEED_"`

	Timezone        string        `env:"TIMEZONE"`
	LockWaitTimeout time.Duration `env:"LOCK_WAIT_TIMEOUT" envDefault:"5s"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"100"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret string        `env:"SECRET"`
	TTL    time.Duration `env:"TTL" envDefault:"24h"`
	Issuer string        `env:"ISSUER" envDefault:"event-admission"`
}

// SeedConfig controls the default accounts created on an empty database.
type SeedConfig struct {
	DefaultUsers  bool   `env:"DEFAULT_USERS" envDefault:"true"`
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"admin123"`
	UserEmail     string `env:"USER_EMAIL" envDefault:"user@example.com"`
	UserPassword  string `env:"USER_PASSWORD" envDefault:"user123"`
}

const devJWTSecret = "dev-only-secret-change-me"

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case database.DriverPostgres, database.DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q",
			database.DriverPostgres, database.DriverSQLite, c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		slog.Warn("JWT_SECRET is not set, using development secret")
		c.JWT.Secret = devJWTSecret
	}
	if c.LockWaitTimeout < 0 {
		return fmt.Errorf("LOCK_WAIT_TIMEOUT must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location returns the time zone deciding which calendar day is "today".
func (c *Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Clock returns the current time in the configured location.
func (c *Config) Clock() func() time.Time {
	loc, err := c.Location()
	if err != nil {
		loc = time.Local
	}
	return func() time.Time { return time.Now().In(loc) }
}
