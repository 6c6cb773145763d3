package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name below.
const EnvPrefix = "IDENTITY_"

type Config struct {
	Env                 string        `env:"ENV" envDefault:"dev"`         // dev, staging, prod
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`  // debug, info, warn, error
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json"` // json, text
	Port                int           `env:"PORT" envDefault:"8080"`       // HTTP server port
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	TrustProxy          bool          `env:"TRUST_PROXY"` // read the client IP from X-Forwarded-For
	MetricsEnabled      bool          `env:"METRICS_ENABLED" envDefault:"true"`

	DatabaseFile string `env:"DATABASE_FILE" envDefault:"identity.db"`

	// Access tokens come from an external identity provider. Exactly one of
	// JWKSURL, JWKSFile and JWTSecret selects how they are verified; the
	// shared secret is meant for local development only.
	JWTIssuer       string        `env:"JWT_ISSUER"`
	JWTAudience     []string      `env:"JWT_AUDIENCE" envSeparator:","`
	JWTLeeway       time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`
	JWKSURL         string        `env:"JWKS_URL"`
	JWKSFile        string        `env:"JWKS_FILE"`
	JWKSRefresh     time.Duration `env:"JWKS_REFRESH_INTERVAL" envDefault:"15m"`
	JWTSecret       string        `env:"JWT_SECRET"`
	JWTAlgorithms   []string      `env:"JWT_ALGORITHMS" envSeparator:","`
	RedisAddr       string        `env:"REDIS_ADDR"` // empty logs events instead of publishing them
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB"`
	RedisChannel    string        `env:"REDIS_CHANNEL_PREFIX" envDefault:"identity.events"`
	OutboxInterval  time.Duration `env:"OUTBOX_INTERVAL" envDefault:"2s"`
	OutboxBatchSize int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	OutboxRetention time.Duration `env:"OUTBOX_RETENTION" envDefault:"168h"`

	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// LoadConfig reads an optional .env file and then the environment. Values
// already set in the environment win over the file.
func LoadConfig() (Config, error) {
	cfg, err := LoadDatabaseConfig()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDatabaseConfig parses the environment like LoadConfig but skips
// validation, for commands that only touch the database.
func LoadDatabaseConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate rejects combinations the service cannot start with.
func (c Config) Validate() error {
	sources := 0
	for _, s := range []string{c.JWKSURL, c.JWKSFile, c.JWTSecret} {
		if s != "" {
			sources++
		}
	}
	switch {
	case sources == 0:
		return errors.New("config: one of " + EnvPrefix + "JWKS_URL, " + EnvPrefix + "JWKS_FILE or " + EnvPrefix + "JWT_SECRET is required")
	case sources > 1:
		return errors.New("config: " + EnvPrefix + "JWKS_URL, " + EnvPrefix + "JWKS_FILE and " + EnvPrefix + "JWT_SECRET are mutually exclusive")
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return errors.New("config: " + EnvPrefix + "JWT_SECRET must be at least 32 bytes")
	}
	if c.JWTSecret != "" && c.Env == "prod" {
		return errors.New("config: shared secret verification is not allowed in prod")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.OutboxInterval <= 0 || c.HousekeepingInterval <= 0 {
		return errors.New("config: outbox and housekeeping intervals must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return errors.New("config: outbox batch size must be positive")
	}
	return nil
}
