package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	Storage       StorageConfig       `yaml:"storage"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Admin         AdminConfig         `yaml:"admin"`
	Event         EventConfig         `yaml:"event"`
	Flags         FlagsConfig         `yaml:"flags"`
	Hints         HintsConfig         `yaml:"hints"`
	Submission    SubmissionConfig    `yaml:"submission"`
	NATS          NATSConfig          `yaml:"nats"`
	Redis         RedisConfig         `yaml:"redis"`
	Queue         QueueConfig         `yaml:"queue"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// StorageConfig selects the attempt ledger backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // postgres|memory
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Address        string   `yaml:"address"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
	Issuer     string        `yaml:"issuer"`
}

// AdminConfig holds the single operator account.
type AdminConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"` // bcrypt
}

// EventConfig holds the fallback round start instants used when a team has no session.
type EventConfig struct {
	Round1Start time.Time `yaml:"round1_start"`
	Round2Start time.Time `yaml:"round2_start"`
}

// FlagsConfig holds the flag secrets and their prefixes.
type FlagsConfig struct {
	Prefix    string `yaml:"prefix"`
	PWNPrefix string `yaml:"pwn_prefix"`
	Round1    string `yaml:"round1"`
	Android   string `yaml:"android"`
	PWNUser   string `yaml:"pwn_user"`
	PWNRoot   string `yaml:"pwn_root"`
}

// HintConfig is a single catalog entry.
type HintConfig struct {
	Cost float64 `yaml:"cost"`
	Text string  `yaml:"text"`
}

// HintsConfig is the ordered hint catalog per bucket.
type HintsConfig struct {
	Round1  []HintConfig `yaml:"round1"`
	Android []HintConfig `yaml:"android"`
	PWN     []HintConfig `yaml:"pwn"`
}

// SubmissionConfig tunes the atomic submission unit.
type SubmissionConfig struct {
	UnitTimeout time.Duration `yaml:"unit_timeout"`
}

// NATSConfig holds NATS configuration. An empty URL selects the in-process bus.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the leaderboard cache settings. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// QueueConfig toggles the River job queue.
type QueueConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
	MetricsAddress string `yaml:"metrics_address"`
}

// ConfigurationError is fatal: the process must not serve traffic with it.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// ErrConfiguration matches any *ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("configuration error")

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := overrideFromEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := overrideFromEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if cfg.Storage.Driver == "postgres" && cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	return &cfg, nil
}

func overrideFromEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_DEFAULT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JWT_DEFAULT_TTL value: %v", err)
		}
		cfg.JWT.DefaultTTL = d
	}
	if v := os.Getenv("ADMIN_USERNAME"); v != "" {
		cfg.Admin.Username = v
	}
	if v := os.Getenv("ADMIN_PASSWORD_HASH"); v != "" {
		cfg.Admin.PasswordHash = v
	}
	if v := os.Getenv("EVENT_ROUND1_START"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("invalid EVENT_ROUND1_START value: %v", err)
		}
		cfg.Event.Round1Start = t
	}
	if v := os.Getenv("EVENT_ROUND2_START"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("invalid EVENT_ROUND2_START value: %v", err)
		}
		cfg.Event.Round2Start = t
	}
	if v := os.Getenv("FLAG_PREFIX"); v != "" {
		cfg.Flags.Prefix = v
	}
	if v := os.Getenv("FLAG_PWN_PREFIX"); v != "" {
		cfg.Flags.PWNPrefix = v
	}
	if v := os.Getenv("ROUND1_FLAG"); v != "" {
		cfg.Flags.Round1 = v
	}
	if v := os.Getenv("ANDROID_FLAG"); v != "" {
		cfg.Flags.Android = v
	}
	if v := os.Getenv("PWN_USER_FLAG"); v != "" {
		cfg.Flags.PWNUser = v
	}
	if v := os.Getenv("PWN_ROOT_FLAG"); v != "" {
		cfg.Flags.PWNRoot = v
	}
	if v := os.Getenv("SUBMISSION_UNIT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SUBMISSION_UNIT_TIMEOUT value: %v", err)
		}
		cfg.Submission.UnitTimeout = d
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB value: %v", err)
		}
		cfg.Redis.DB = n
	}
	if v := os.Getenv("QUEUE_ENABLED"); v != "" {
		cfg.Queue.Enabled = v == "true"
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.RateLimit == 0 {
		c.HTTP.RateLimit = 5
	}
	if c.HTTP.RateBurst == 0 {
		c.HTTP.RateBurst = 10
	}
	if c.JWT.DefaultTTL == 0 {
		c.JWT.DefaultTTL = 12 * time.Hour
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "medusa-ctf"
	}
	if c.Flags.Prefix == "" {
		c.Flags.Prefix = "MEDUSA"
	}
	if c.Flags.PWNPrefix == "" {
		c.Flags.PWNPrefix = "MEDUSAPWN"
	}
	if c.Submission.UnitTimeout == 0 {
		c.Submission.UnitTimeout = 5 * time.Second
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 30 * time.Second
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = "development"
	}
}

// Validate fails fast on settings the service cannot run without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return &ConfigurationError{Field: "jwt.secret", Reason: "must be set"}
	}
	if c.Storage.Driver != "postgres" && c.Storage.Driver != "memory" {
		return &ConfigurationError{Field: "storage.driver", Reason: fmt.Sprintf("unknown driver %q", c.Storage.Driver)}
	}
	if c.Storage.Driver == "postgres" && c.Postgres.DSN == "" {
		return &ConfigurationError{Field: "postgres.dsn", Reason: "must be set for the postgres driver"}
	}
	if c.Queue.Enabled && c.Storage.Driver != "postgres" {
		return &ConfigurationError{Field: "queue.enabled", Reason: "the job queue requires the postgres driver"}
	}

	// scoring falls back to these when a team has no recorded session
	if c.Event.Round1Start.IsZero() {
		return &ConfigurationError{Field: "event.round1_start", Reason: "must be set"}
	}
	if c.Event.Round2Start.IsZero() {
		return &ConfigurationError{Field: "event.round2_start", Reason: "must be set"}
	}

	secrets := []struct {
		field, value, prefix string
	}{
		{"flags.round1", c.Flags.Round1, c.Flags.Prefix},
		{"flags.android", c.Flags.Android, c.Flags.Prefix},
		{"flags.pwn_user", c.Flags.PWNUser, c.Flags.PWNPrefix},
		{"flags.pwn_root", c.Flags.PWNRoot, c.Flags.PWNPrefix},
	}
	for _, s := range secrets {
		if s.value == "" {
			return &ConfigurationError{Field: s.field, Reason: "flag secret must be set"}
		}
		if !strings.HasPrefix(s.value, s.prefix+"{") || !strings.HasSuffix(s.value, "}") {
			return &ConfigurationError{Field: s.field, Reason: fmt.Sprintf("flag secret must have the form %s{...}", s.prefix)}
		}
	}

	if c.Admin.Username != "" && c.Admin.PasswordHash == "" {
		return &ConfigurationError{Field: "admin.password_hash", Reason: "must be set when admin.username is set"}
	}

	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
