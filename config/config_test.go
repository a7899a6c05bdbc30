package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{
		Postgres: PostgresConfig{DSN: "postgres://localhost/medusa"},
		JWT:      JWTConfig{Secret: "test-secret-at-least-32-chars-long!!"},
		Flags: FlagsConfig{
			Round1:  "MEDUSA{web_round_one}",
			Android: "MEDUSA{apk_secrets}",
			PWNUser: "MEDUSAPWN{user_shell}",
			PWNRoot: "MEDUSAPWN{root_shell}",
		},
		Event: EventConfig{
			Round1Start: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			Round2Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
	}
	cfg.applyDefaults()
	return cfg
}

func TestLoadConfig_FromFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlData := `
postgres:
  dsn: postgres://file/medusa
jwt:
  secret: from-file
  default_ttl: 2h
event:
  round1_start: 2026-03-01T09:00:00Z
flags:
  round1: MEDUSA{file_flag}
hints:
  round1:
    - cost: 50
      text: look at the headers
    - cost: 100
      text: the cookie is signed with a weak key
submission:
  unit_timeout: 3s
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o600))
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://file/medusa", cfg.Postgres.DSN)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.DefaultTTL)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), cfg.Event.Round1Start.UTC())
	assert.Equal(t, "MEDUSA{file_flag}", cfg.Flags.Round1)
	assert.Len(t, cfg.Hints.Round1, 2)
	assert.Equal(t, 100.0, cfg.Hints.Round1[1].Cost)
	assert.Equal(t, 3*time.Second, cfg.Submission.UnitTimeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "MEDUSA", cfg.Flags.Prefix)
}

func TestLoadConfig_EnvOnly(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		verify  func(t *testing.T, cfg *Config)
	}{
		{
			name:    "missing database url",
			env:     map[string]string{"JWT_SECRET": "s"},
			wantErr: true,
		},
		{
			name: "memory driver does not need a database",
			env: map[string]string{
				"STORAGE_DRIVER":          "memory",
				"SUBMISSION_UNIT_TIMEOUT": "750ms",
				"ALLOWED_ORIGINS":         "https://ctf.example.com, https://admin.example.com",
			},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "memory", cfg.Storage.Driver)
				assert.Equal(t, 750*time.Millisecond, cfg.Submission.UnitTimeout)
				assert.Equal(t, []string{"https://ctf.example.com", "https://admin.example.com"}, cfg.HTTP.AllowedOrigins)
			},
		},
		{
			name: "invalid duration",
			env: map[string]string{
				"DATABASE_URL":    "postgres://env/medusa",
				"JWT_DEFAULT_TTL": "forever",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.verify(t, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing jwt secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantField: "jwt.secret"},
		{name: "missing round1 flag", mutate: func(c *Config) { c.Flags.Round1 = "" }, wantField: "flags.round1"},
		{name: "pwn flag with wrong prefix", mutate: func(c *Config) { c.Flags.PWNRoot = "MEDUSA{root}" }, wantField: "flags.pwn_root"},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, wantField: "storage.driver"},
		{name: "queue without postgres", mutate: func(c *Config) {
			c.Storage.Driver = "memory"
			c.Queue.Enabled = true
		}, wantField: "queue.enabled"},
		{name: "missing round1 start", mutate: func(c *Config) { c.Event.Round1Start = time.Time{} }, wantField: "event.round1_start"},
		{name: "missing round2 start", mutate: func(c *Config) { c.Event.Round2Start = time.Time{} }, wantField: "event.round2_start"},
		{name: "admin without hash", mutate: func(c *Config) { c.Admin.Username = "root" }, wantField: "admin.password_hash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.wantField, cfgErr.Field)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}
