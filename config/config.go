package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvProduction is the environment name that enables production safety checks.
	EnvProduction = "production"

	insecureDefaultSecret = "dev-secret-key-change-in-production"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres    PostgresConfig    `yaml:"postgres"`
	Redis       RedisConfig       `yaml:"redis"`
	NATS        NATSConfig        `yaml:"nats"`
	HTTP        HTTPConfig        `yaml:"http"`
	JWT         JWTConfig         `yaml:"jwt"`
	Log         LogConfig         `yaml:"log"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Flags       FlagConfig        `yaml:"flags"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Attachments AttachmentsConfig `yaml:"attachments"`
	Bootstrap   BootstrapConfig   `yaml:"bootstrap"`
	Environment string            `yaml:"environment"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN         string        `yaml:"dsn"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

// RedisConfig holds the leaderboard cache configuration. An empty URL disables the cache.
type RedisConfig struct {
	URL            string        `yaml:"url"`
	PoolSize       int           `yaml:"pool_size"`
	LeaderboardTTL time.Duration `yaml:"leaderboard_ttl"`
}

// NATSConfig holds the solve relay configuration. An empty URL disables the relay.
type NATSConfig struct {
	URL      string `yaml:"url"`
	Subject  string `yaml:"subject"`
	NKeySeed string `yaml:"nkey_seed"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Addr             string   `yaml:"addr"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	MaxContentLength int64    `yaml:"max_content_length"`
	RegistrationOpen *bool    `yaml:"registration_open"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json|text
}

// RateLimitConfig holds request throttling configuration.
type RateLimitConfig struct {
	Enabled              *bool `yaml:"enabled"`
	SubmissionsPerMinute int   `yaml:"submissions_per_minute"`
	RequestsPerSecond    int   `yaml:"requests_per_second"`
	Burst                int   `yaml:"burst"`
}

// FlagConfig holds flag verification settings.
type FlagConfig struct {
	Prefix        string `yaml:"prefix"`
	CaseSensitive bool   `yaml:"case_sensitive"`
}

// ScoringConfig holds dynamic scoring settings.
type ScoringConfig struct {
	System            string        `yaml:"system"` // dynamic|static
	BasePoints        int           `yaml:"base_points"`
	BloodBonusEnabled bool          `yaml:"blood_bonus_enabled"`
	RecalcInterval    time.Duration `yaml:"recalc_interval"` // negative disables the periodic job
}

// AttachmentsConfig holds the attachment content root.
type AttachmentsConfig struct {
	Dir string `yaml:"dir"`
}

// BootstrapConfig holds the default admin account settings.
type BootstrapConfig struct {
	AdminUsername string `yaml:"admin_username"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}

// DynamicScoring reports whether recalculation should change challenge points.
func (c *Config) DynamicScoring() bool {
	return !strings.EqualFold(c.Scoring.System, "static")
}

// RateLimitingEnabled reports whether request and submission throttling is on.
func (c *Config) RateLimitingEnabled() bool {
	return c.RateLimit.Enabled == nil || *c.RateLimit.Enabled
}

// RegistrationIsOpen reports whether players may self-register.
func (c *Config) RegistrationIsOpen() bool {
	return c.HTTP.RegistrationOpen == nil || *c.HTTP.RegistrationOpen
}

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

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	cfg.Postgres.DSN = os.Getenv("DATABASE_URL")
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_NKEY_SEED"); v != "" {
		cfg.NATS.NKeySeed = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FLAG_PREFIX"); v != "" {
		cfg.Flags.Prefix = v
	}
	if v := os.Getenv("FLAG_CASE_SENSITIVE"); v != "" {
		cfg.Flags.CaseSensitive = parseBool(v)
	}
	if v := os.Getenv("SCORING_SYSTEM"); v != "" {
		cfg.Scoring.System = v
	}
	if v := os.Getenv("BLOOD_BONUS_ENABLED"); v != "" {
		cfg.Scoring.BloodBonusEnabled = parseBool(v)
	}
	if v := os.Getenv("ATTACHMENTS_DIR"); v != "" {
		cfg.Attachments.Dir = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		cfg.Bootstrap.AdminPassword = v
	}
	if v := os.Getenv("REGISTRATION_OPEN"); v != "" {
		open := parseBool(v)
		cfg.HTTP.RegistrationOpen = &open
	}
	if v := os.Getenv("RATE_LIMITING_ENABLED"); v != "" {
		enabled := parseBool(v)
		cfg.RateLimit.Enabled = &enabled
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"JWT_TTL", &cfg.JWT.TTL},
		{"RECALC_INTERVAL", &cfg.Scoring.RecalcInterval},
		{"LOCK_TIMEOUT", &cfg.Postgres.LockTimeout},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s value: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	if v := os.Getenv("MAX_SUBMISSIONS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_SUBMISSIONS_PER_MINUTE value: %w", err)
		}
		cfg.RateLimit.SubmissionsPerMinute = n
	}
	if v := os.Getenv("BASE_POINTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BASE_POINTS value: %w", err)
		}
		cfg.Scoring.BasePoints = n
	}
	if v := os.Getenv("MAX_CONTENT_LENGTH"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_CONTENT_LENGTH value: %w", err)
		}
		cfg.HTTP.MaxContentLength = n
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.MaxContentLength == 0 {
		cfg.HTTP.MaxContentLength = 16 * 1024 * 1024
	}
	if cfg.HTTP.RegistrationOpen == nil {
		open := true
		cfg.HTTP.RegistrationOpen = &open
	}
	if cfg.JWT.Secret == "" && !cfg.IsProduction() {
		cfg.JWT.Secret = insecureDefaultSecret
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 24 * time.Hour
	}
	if cfg.Postgres.LockTimeout == 0 {
		cfg.Postgres.LockTimeout = 5 * time.Second
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.LeaderboardTTL == 0 {
		cfg.Redis.LeaderboardTTL = 30 * time.Second
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = "ctf.solves"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
		if !cfg.IsProduction() {
			cfg.Log.Format = "text"
		}
	}
	if cfg.RateLimit.Enabled == nil {
		enabled := true
		cfg.RateLimit.Enabled = &enabled
	}
	if cfg.RateLimit.SubmissionsPerMinute == 0 {
		cfg.RateLimit.SubmissionsPerMinute = 30
		if cfg.IsProduction() {
			cfg.RateLimit.SubmissionsPerMinute = 10
		}
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 20
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 40
	}
	if cfg.Flags.Prefix == "" {
		cfg.Flags.Prefix = "CTF"
	}
	if cfg.Scoring.System == "" {
		cfg.Scoring.System = "dynamic"
	}
	if cfg.Scoring.BasePoints == 0 {
		cfg.Scoring.BasePoints = 1000
	}
	if cfg.Scoring.RecalcInterval == 0 {
		cfg.Scoring.RecalcInterval = 15 * time.Minute
	}
	if cfg.Attachments.Dir == "" {
		cfg.Attachments.Dir = "challenges"
	}
	if cfg.Bootstrap.AdminUsername == "" {
		cfg.Bootstrap.AdminUsername = "admin"
	}
	if cfg.Bootstrap.AdminEmail == "" {
		cfg.Bootstrap.AdminEmail = "admin@ctfplatform.com"
	}
}

func (c *Config) validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres dsn is required")
	}
	if c.IsProduction() && (c.JWT.Secret == "" || c.JWT.Secret == insecureDefaultSecret) {
		return fmt.Errorf("a non-default JWT secret is required in production")
	}
	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
