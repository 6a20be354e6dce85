// Package config provides application configuration management.
// It loads settings from environment variables (optionally seeded from a
// .env file) and an optional YAML job catalogue.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ValidationMode selects which settings are required.
type ValidationMode int

const (
	// ServerMode requires everything the bot and dashboard need.
	ServerMode ValidationMode = iota
	// SeedMode only requires the data settings.
	SeedMode
)

// DefaultPort is the HTTP port used when ZEWED_PORT is unset.
const DefaultPort = "10000"

// Config holds all application configuration
type Config struct {
	// Telegram
	BotToken      string
	AdminIDs      []int64
	WebhookURL    string // empty = long polling
	WebhookSecret string

	// Server
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	ServerName      string

	// Data
	DataDir             string
	CatalogFile         string
	Catalog             Catalog
	JobTTL              time.Duration
	ExpirySweepInterval time.Duration
	PageSize            int
	MaxPageSize         int
	SearchLimit         int

	// Dashboard
	DashboardAdminToken string // empty disables admin-only routes
	MetricsUsername     string
	MetricsPassword     string // empty = no auth on /metrics

	Features    Features
	Bot         BotConfig
	Sentry      SentryConfig
	BetterStack BetterStackConfig
	Backup      BackupConfig
}

// Features holds the feature flags.
type Features struct {
	JobPosting         bool
	ResumeUpload       bool
	EmailNotifications bool
}

// BotConfig holds bot runtime settings.
type BotConfig struct {
	UpdateTimeout time.Duration

	// Token bucket per Telegram user
	UserRateLimitBurst        float64
	UserRateLimitRefillPerSec float64

	MaxConcurrentUpdates int

	// Global outbound message rate (Telegram allows about 30/s per bot)
	SendRatePerSec float64

	// Job posts per employer per rolling 24h; 0 disables the quota
	DailyPostLimit int
}

// SentryConfig configures error reporting. Empty DSN disables it.
type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
}

// BetterStackConfig configures remote log shipping. Empty token disables it.
type BetterStackConfig struct {
	Token    string
	Endpoint string
}

// BackupConfig configures the S3-compatible snapshot store.
type BackupConfig struct {
	Enabled         bool
	Endpoint        string // empty = AWS default resolver
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Key             string
	Interval        time.Duration
}

// Load reads configuration for server mode.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from environment variables and validates it for mode.
// It attempts to load a .env file first; a missing file is not an error.
func LoadForMode(mode ValidationMode) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:      getEnv(EnvBotToken, ""),
		AdminIDs:      getInt64ListEnv(EnvAdminIDs),
		WebhookURL:    getEnv(EnvWebhookURL, ""),
		WebhookSecret: getEnv(EnvWebhookSecret, ""),

		Port:            getEnv(EnvPort, DefaultPort),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		ServerName:      getEnv(EnvServerName, "zewed-jobs"),

		DataDir:             getEnv(EnvDataDir, getDefaultDataDir()),
		CatalogFile:         getEnv(EnvCatalogFile, ""),
		JobTTL:              getDurationEnv(EnvJobTTL, 30*24*time.Hour),
		ExpirySweepInterval: getDurationEnv(EnvExpirySweepInterval, DefaultExpirySweepInterval),
		PageSize:            getIntEnv(EnvPageSize, 5),
		MaxPageSize:         getIntEnv(EnvMaxPageSize, 50),
		SearchLimit:         getIntEnv(EnvSearchLimit, 20),

		DashboardAdminToken: getEnv(EnvDashboardAdminToken, ""),
		MetricsUsername:     getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword:     getEnv(EnvMetricsPassword, ""),

		Features: Features{
			JobPosting:         getBoolEnv(EnvEnableJobPosting, true),
			ResumeUpload:       getBoolEnv(EnvEnableResumeUpload, false),
			EmailNotifications: getBoolEnv(EnvEnableEmailNotifications, false),
		},

		Bot: BotConfig{
			UpdateTimeout:             getDurationEnv(EnvUpdateTimeout, UpdateProcessing),
			UserRateLimitBurst:        getFloatEnv(EnvUserRateBurst, 10),
			UserRateLimitRefillPerSec: getFloatEnv(EnvUserRateRefill, 0.5),
			MaxConcurrentUpdates:      getIntEnv(EnvMaxConcurrentUpdates, 16),
			SendRatePerSec:            getFloatEnv(EnvSendRatePerSec, 25),
			DailyPostLimit:            getIntEnv(EnvDailyPostLimit, 10),
		},

		Sentry: SentryConfig{
			DSN:              getEnv(EnvSentryDSN, ""),
			Environment:      getEnv(EnvSentryEnvironment, "production"),
			Release:          getEnv(EnvSentryRelease, ""),
			SampleRate:       getFloatEnv(EnvSentrySampleRate, 1.0),
			TracesSampleRate: getFloatEnv(EnvSentryTracesSampleRate, 0),
		},

		BetterStack: BetterStackConfig{
			Token:    getEnv(EnvBetterStackToken, ""),
			Endpoint: getEnv(EnvBetterStackEndpoint, ""),
		},

		Backup: BackupConfig{
			Enabled:         getBoolEnv(EnvBackupEnabled, false),
			Endpoint:        getEnv(EnvBackupEndpoint, ""),
			Region:          getEnv(EnvBackupRegion, "auto"),
			AccessKeyID:     getEnv(EnvBackupAccessKeyID, ""),
			SecretAccessKey: getEnv(EnvBackupSecretAccessKey, ""),
			Bucket:          getEnv(EnvBackupBucket, ""),
			Key:             getEnv(EnvBackupKey, "snapshots/zewed_jobs.db.zst"),
			Interval:        getDurationEnv(EnvBackupInterval, DefaultBackupInterval),
		},
	}

	catalog, err := LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	cfg.Catalog = catalog

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for server mode.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks that required values for mode are set and consistent.
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvDataDir))
	}
	if c.JobTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvJobTTL, c.JobTTL))
	}
	if c.MaxPageSize < 1 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvMaxPageSize, c.MaxPageSize))
	}
	if c.PageSize < 1 || c.PageSize > c.MaxPageSize {
		errs = append(errs, fmt.Errorf("%s must be between 1 and %d, got %d", EnvPageSize, c.MaxPageSize, c.PageSize))
	}
	if c.SearchLimit < 1 || c.SearchLimit > c.MaxPageSize {
		errs = append(errs, fmt.Errorf("%s must be between 1 and %d, got %d", EnvSearchLimit, c.MaxPageSize, c.SearchLimit))
	}
	if err := c.Catalog.Validate(); err != nil {
		errs = append(errs, err)
	}

	if mode == ServerMode {
		if c.BotToken == "" {
			errs = append(errs, fmt.Errorf("%s is required", EnvBotToken))
		}
		if c.Port == "" {
			errs = append(errs, fmt.Errorf("%s is required", EnvPort))
		}
		if c.WebhookURL != "" && c.WebhookSecret == "" {
			errs = append(errs, fmt.Errorf("%s is required when %s is set", EnvWebhookSecret, EnvWebhookURL))
		}
		if c.ExpirySweepInterval <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvExpirySweepInterval, c.ExpirySweepInterval))
		}
		if err := c.Bot.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("bot config: %w", err))
		}
		if c.Backup.Enabled {
			if err := c.Backup.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("backup config: %w", err))
			}
		}
	}

	return errors.Join(errs...)
}

// Validate checks bot runtime settings.
func (b BotConfig) Validate() error {
	var errs []error
	if b.UpdateTimeout <= 0 {
		errs = append(errs, fmt.Errorf("update timeout must be positive, got %v", b.UpdateTimeout))
	}
	if b.UserRateLimitBurst <= 0 {
		errs = append(errs, fmt.Errorf("user rate limit burst must be positive, got %v", b.UserRateLimitBurst))
	}
	if b.UserRateLimitRefillPerSec <= 0 {
		errs = append(errs, fmt.Errorf("user rate limit refill must be positive, got %v", b.UserRateLimitRefillPerSec))
	}
	if b.MaxConcurrentUpdates < 1 {
		errs = append(errs, fmt.Errorf("max concurrent updates must be positive, got %d", b.MaxConcurrentUpdates))
	}
	if b.SendRatePerSec <= 0 {
		errs = append(errs, fmt.Errorf("send rate must be positive, got %v", b.SendRatePerSec))
	}
	if b.DailyPostLimit < 0 {
		errs = append(errs, fmt.Errorf("daily post limit must not be negative, got %d", b.DailyPostLimit))
	}
	return errors.Join(errs...)
}

// Validate checks that an enabled backup has somewhere to go.
func (b BackupConfig) Validate() error {
	var errs []error
	if b.Bucket == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvBackupBucket))
	}
	if b.Key == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvBackupKey))
	}
	if b.Interval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvBackupInterval, b.Interval))
	}
	return errors.Join(errs...)
}

// IsAdmin reports whether userID is listed in ZEWED_ADMIN_IDS.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "zewed_jobs.db")
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getInt64ListEnv parses a comma separated list of ids, skipping malformed entries.
func getInt64ListEnv(key string) []int64 {
	var out []int64
	for part := range strings.SplitSeq(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
