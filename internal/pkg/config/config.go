package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Session SessionConfig
	Login   LoginConfig
	Mongo   MongoConfig
	Redis   RedisConfig

	AuditWorkers int `env:"AUDIT_WORKERS, default=4"`
}

// SessionConfig is read once at startup. The secret is never re-read or
// changed while the process runs.
type SessionConfig struct {
	Secret       string        `env:"JWT_SECRET, required"`
	TTL          time.Duration `env:"TOKEN_TTL, default=24h"`
	Leeway       time.Duration `env:"TOKEN_LEEWAY, default=0s"`
	CookieName   string        `env:"SESSION_COOKIE, default=session_token"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE, default=true"`
}

type LoginConfig struct {
	MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS, default=5"`
	Window      time.Duration `env:"LOGIN_WINDOW,       default=15m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=revenue_tracker"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

const minSecretLength = 32

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Session.Secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength)
	}
	if c.Session.TTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.Session.Leeway < 0 || c.Session.Leeway > 2*time.Minute {
		return errors.New("TOKEN_LEEWAY must be between 0 and 2m")
	}
	return nil
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }
