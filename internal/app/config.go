package app

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:"127.0.0.1:4321"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// DBPath overrides the platform application-data location.
	DBPath string `envconfig:"DB_PATH"`

	AuthSecret   string        `envconfig:"AUTH_SECRET"`
	AuthTokenTTL time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"12h"`

	// IdempotencyRetention bounds how long processed request keys are
	// kept; expired ones are purged at boot.
	IdempotencyRetention time.Duration `envconfig:"IDEMPOTENCY_RETENTION" default:"168h"`

	// SeedAdminPassword is only used when the users table is empty.
	SeedAdminPassword string `envconfig:"SEED_ADMIN_PASSWORD" default:"1234"`
}

// LoadConfig reads configuration from the environment, merging an
// optional .env file first.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.AuthSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("auth secret must be provided")
		}
		cfg.AuthSecret = "dev_secret"
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
