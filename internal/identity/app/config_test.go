package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvPrefix+"JWT_SECRET", testSecret)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "identity.db", cfg.DatabaseFile)
	require.Equal(t, 2*time.Second, cfg.OutboxInterval)
	require.Equal(t, 100, cfg.OutboxBatchSize)
	require.Equal(t, 7*24*time.Hour, cfg.OutboxRetention)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
	require.True(t, cfg.MetricsEnabled)
	require.Empty(t, cfg.RedisAddr)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvPrefix+"JWKS_URL", "https://idp.example.com/.well-known/jwks.json")
	t.Setenv(EnvPrefix+"JWT_AUDIENCE", "identity,admin")
	t.Setenv(EnvPrefix+"PORT", "9090")
	t.Setenv(EnvPrefix+"OUTBOX_INTERVAL", "500ms")
	t.Setenv(EnvPrefix+"REDIS_ADDR", "localhost:6379")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, []string{"identity", "admin"}, cfg.JWTAudience)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 500*time.Millisecond, cfg.OutboxInterval)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Env:                  "dev",
			Port:                 8080,
			JWTSecret:            testSecret,
			OutboxInterval:       time.Second,
			OutboxBatchSize:      10,
			HousekeepingInterval: time.Hour,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"no key source", func(c *Config) { c.JWTSecret = "" }, false},
		{"two key sources", func(c *Config) { c.JWKSFile = "jwks.json" }, false},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, false},
		{"secret in prod", func(c *Config) { c.Env = "prod" }, false},
		{"jwks in prod", func(c *Config) { c.Env = "prod"; c.JWTSecret = ""; c.JWKSFile = "jwks.json" }, true},
		{"bad port", func(c *Config) { c.Port = 0 }, false},
		{"zero batch", func(c *Config) { c.OutboxBatchSize = 0 }, false},
		{"zero interval", func(c *Config) { c.OutboxInterval = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte(EnvPrefix+"JWKS_FILE=keys.json\n"+EnvPrefix+"DATABASE_FILE=from-file.db\n"), 0o600))
	t.Setenv(EnvPrefix+"DATABASE_FILE", "from-env.db")
	// godotenv writes into the process environment; register the key so it
	// is restored after the test.
	t.Setenv(EnvPrefix+"JWKS_FILE", "")
	require.NoError(t, os.Unsetenv(EnvPrefix+"JWKS_FILE"))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "keys.json", cfg.JWKSFile)
	require.Equal(t, "from-env.db", cfg.DatabaseFile)
}

func TestLoadDatabaseConfig_SkipsValidation(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig()
	require.Error(t, err)

	cfg, err := LoadDatabaseConfig()
	require.NoError(t, err)
	require.Equal(t, "identity.db", cfg.DatabaseFile)
}
