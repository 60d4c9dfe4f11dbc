// Package config loads server settings from the environment and flags.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// SecretEnv names the variable holding the session signing secret. The
// secret is never accepted as a flag.
const SecretEnv = "MANTAFLOW_SECRET"

const (
	minSecretLength = 32
	minBcryptCost   = 10
	maxBcryptCost   = 14
)

// Config holds everything the server needs at startup.
type Config struct {
	Port         string
	Store        string
	DatabasePath string
	Secret       string
	BcryptCost   int
	SessionTTL   time.Duration
	CookieSecure bool
	DemoAccount  bool
	LogFormat    string
	LogLevel     string
	RateLimit    float64 // requests per second per client, 0 disables
	RateBurst    int
}

// FromEnv builds a Config from defaults overlaid with environment values.
// getenv is usually os.Getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:         env("PORT", "8080"),
		Store:        env("STORE", StoreMemory),
		DatabasePath: env("DATABASE_PATH", "mantaflow.db"),
		Secret:       getenv(SecretEnv),
		// Secure cookies unless explicitly disabled for local development.
		CookieSecure: getenv("COOKIE_SECURE") != "false",
		DemoAccount:  getenv("DEMO_ACCOUNT") != "false",
		LogFormat:    env("LOG_FORMAT", "json"),
		LogLevel:     env("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.BcryptCost, err = strconv.Atoi(env("BCRYPT_COST", "12")); err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	if cfg.SessionTTL, err = time.ParseDuration(env("SESSION_TTL", "720h")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if cfg.RateLimit, err = strconv.ParseFloat(env("RATE_LIMIT", "0.5"), 64); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT: %w", err)
	}
	if cfg.RateBurst, err = strconv.Atoi(env("RATE_BURST", "10")); err != nil {
		return nil, fmt.Errorf("invalid RATE_BURST: %w", err)
	}

	return cfg, nil
}

// BindFlags registers flags that override the environment-derived values.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Port, "port", c.Port, "HTTP listen port")
	fs.StringVar(&c.Store, "store", c.Store, "account store backend (memory or sqlite)")
	fs.StringVar(&c.DatabasePath, "database-path", c.DatabasePath, "SQLite database file (store=sqlite)")
	fs.IntVar(&c.BcryptCost, "bcrypt-cost", c.BcryptCost, "bcrypt work factor")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "lifetime of issued session claims")
	fs.BoolVar(&c.CookieSecure, "cookie-secure", c.CookieSecure, "mark the session cookie Secure")
	fs.BoolVar(&c.DemoAccount, "demo-account", c.DemoAccount, "enable the demo@example.com account")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format (json, text or both)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.Float64Var(&c.RateLimit, "rate-limit", c.RateLimit, "auth requests per second per client")
	fs.IntVar(&c.RateBurst, "rate-burst", c.RateBurst, "auth request burst per client")
}

// Validate checks the configuration. Any error is fatal at startup.
func (c *Config) Validate() error {
	var errs []error

	if c.Secret == "" {
		errs = append(errs, fmt.Errorf("%s environment variable is required", SecretEnv))
	} else if len(c.Secret) < minSecretLength {
		errs = append(errs, fmt.Errorf("%s must be at least %d characters for HMAC-SHA256", SecretEnv, minSecretLength))
	}
	if c.BcryptCost < minBcryptCost || c.BcryptCost > maxBcryptCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", minBcryptCost, maxBcryptCost, c.BcryptCost))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL))
	}
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("database path is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store must be %q or %q, got %q", StoreMemory, StoreSQLite, c.Store))
	}
	switch c.LogFormat {
	case "json", "text", "both":
	default:
		errs = append(errs, fmt.Errorf("log format must be 'json', 'text' or 'both', got %q", c.LogFormat))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.RateLimit < 0 || c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("rate limit must be >= 0 and burst >= 1, got %v/%d", c.RateLimit, c.RateBurst))
	}

	return errors.Join(errs...)
}
