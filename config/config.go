// Package config loads Family Chore Hub configuration from environment
// variables. A .env file, when present, is loaded by the binary before Load.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sats-family/chore-hub/pkg/timeutil"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	HTTP          HTTPConfig
	Wallet        WalletConfig
	PriceFeed     PriceFeedConfig
	Rewards       RewardsConfig
	Scheduler     SchedulerConfig
	Observability ObservabilityConfig

	// Features is filled by Load from FEATURE_* variables.
	Features *FeatureFlags `env:"-"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string      `env:"APP_NAME"    envDefault:"chore-hub"`
	Environment Environment `env:"APP_ENV"     envDefault:"development"`
	Version     string      `env:"APP_VERSION" envDefault:"0.1.0"`

	// Timezone defines the household calendar day (daily challenge, streaks).
	Timezone string         `env:"APP_TIMEZONE" envDefault:"Europe/Berlin"`
	Location *time.Location `env:"-"`

	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
// An empty URL runs the service on the in-memory store (development only).
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxConns        int32         `env:"DB_MAX_CONNS"          envDefault:"10"`
	MinConns        int32         `env:"DB_MIN_CONNS"          envDefault:"1"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME"  envDefault:"1h"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"30m"`
	ConnectTimeout  time.Duration `env:"DB_CONNECT_TIMEOUT"    envDefault:"10s"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE"       envDefault:"true"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	Host         string        `env:"REDIS_HOST"           envDefault:"localhost"`
	Port         int           `env:"REDIS_PORT"           envDefault:"6379"`
	Password     string        `env:"REDIS_PASSWORD"`
	DB           int           `env:"REDIS_DB"             envDefault:"0"`
	PoolSize     int           `env:"REDIS_POOL_SIZE"      envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT"   envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT"   envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT"  envDefault:"3s"`

	// Disabled runs without read caches.
	Disabled bool `env:"REDIS_DISABLED" envDefault:"false"`
}

// HTTPConfig holds the REST API settings.
type HTTPConfig struct {
	Host               string        `env:"HTTP_HOST"            envDefault:"0.0.0.0"`
	Port               int           `env:"HTTP_PORT"            envDefault:"8080"`
	ReadTimeout        time.Duration `env:"HTTP_READ_TIMEOUT"    envDefault:"15s"`
	WriteTimeout       time.Duration `env:"HTTP_WRITE_TIMEOUT"   envDefault:"15s"`
	RequestTimeout     time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"10s"`
	AllowedOrigins     []string      `env:"HTTP_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RateLimitPerMinute int           `env:"HTTP_RATE_LIMIT"      envDefault:"120"`

	// ParentAPIKeys guard parent-only operations (create, approve, delete,
	// bonus settings). Empty disables the check.
	ParentAPIKeys []string `env:"HTTP_PARENT_API_KEYS" envSeparator:","`
}

// WalletConfig holds the Settlement service settings.
// An empty BaseURL uses the in-memory settler (development only).
type WalletConfig struct {
	BaseURL string        `env:"WALLET_BASE_URL"`
	APIKey  string        `env:"WALLET_API_KEY"`
	Timeout time.Duration `env:"WALLET_TIMEOUT" envDefault:"10s"`
}

// PriceFeedConfig holds the BTC quote source settings.
type PriceFeedConfig struct {
	Enabled  bool          `env:"PRICEFEED_ENABLED"   envDefault:"true"`
	BaseURL  string        `env:"PRICEFEED_BASE_URL"  envDefault:"https://api.coingecko.com"`
	Currency string        `env:"PRICEFEED_CURRENCY"  envDefault:"eur"`
	Timeout  time.Duration `env:"PRICEFEED_TIMEOUT"   envDefault:"5s"`
	CacheTTL time.Duration `env:"PRICEFEED_CACHE_TTL" envDefault:"5m"`

	// QuoteTimeout bounds the best-effort quote taken during a payout.
	QuoteTimeout time.Duration `env:"PRICEFEED_QUOTE_TIMEOUT" envDefault:"2s"`
}

// RewardsConfig holds engine tunables that are not per-family settings.
type RewardsConfig struct {
	GuardianTier2Sats int64         `env:"REWARDS_GUARDIAN_TIER2_SATS" envDefault:"500"`
	GuardianTier3Sats int64         `env:"REWARDS_GUARDIAN_TIER3_SATS" envDefault:"2100"`
	LeaderboardTTL    time.Duration `env:"REWARDS_LEADERBOARD_TTL"     envDefault:"30s"`
}

// SchedulerConfig holds background job settings.
type SchedulerConfig struct {
	Enabled bool `env:"SCHEDULER_ENABLED" envDefault:"true"`

	// Cron specs (5 fields or @every descriptors).
	RetryMilestonesSpec    string `env:"SCHEDULER_RETRY_MILESTONES"  envDefault:"*/5 * * * *"`
	RebuildLeaderboardSpec string `env:"SCHEDULER_REBUILD_LEADERBOARD" envDefault:"@every 1m"`

	MilestoneBatchSize int           `env:"SCHEDULER_MILESTONE_BATCH" envDefault:"100"`
	JobTimeout         time.Duration `env:"SCHEDULER_JOB_TIMEOUT"     envDefault:"2m"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.App.Location = timeutil.LoadLocation(cfg.App.Timezone)
	cfg.Features = LoadFeatureFlags()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.IsProduction() {
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required in production")
		}
		if c.Wallet.BaseURL == "" {
			errs = append(errs, "WALLET_BASE_URL is required in production")
		}
		if len(c.HTTP.ParentAPIKeys) == 0 {
			errs = append(errs, "HTTP_PARENT_API_KEYS is required in production")
		}
	}

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, "HTTP_PORT must be 1-65535")
	}
	if c.Rewards.GuardianTier2Sats < 0 || c.Rewards.GuardianTier3Sats < 0 {
		errs = append(errs, "REWARDS_GUARDIAN_TIER*_SATS cannot be negative")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, "DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	switch strings.ToLower(c.Observability.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, "LOG_FORMAT must be json or text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}
