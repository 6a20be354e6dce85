package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvBotToken, "123:abc")
	t.Setenv(EnvDataDir, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, 30*24*time.Hour, cfg.JobTTL)
	assert.Equal(t, 20, cfg.SearchLimit)
	assert.True(t, cfg.Features.JobPosting)
	assert.False(t, cfg.Backup.Enabled)
	assert.Equal(t, []string{"tech", "business", "creative", "medical", "engineering", "education"}, cfg.Catalog.CategoryKeys())
	assert.True(t, strings.HasSuffix(cfg.SQLitePath(), "zewed_jobs.db"))
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvBotToken, "123:abc")
	t.Setenv(EnvDataDir, t.TempDir())
	t.Setenv(EnvAdminIDs, "11, 22,bogus,,33")
	t.Setenv(EnvJobTTL, "72h")
	t.Setenv(EnvEnableJobPosting, "false")
	t.Setenv(EnvUserRateBurst, "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int64{11, 22, 33}, cfg.AdminIDs)
	assert.True(t, cfg.IsAdmin(22))
	assert.False(t, cfg.IsAdmin(44))
	assert.Equal(t, 72*time.Hour, cfg.JobTTL)
	assert.False(t, cfg.Features.JobPosting)
	assert.InDelta(t, 3.0, cfg.Bot.UserRateLimitBurst, 0.0001)
}

func TestLoadForMode(t *testing.T) {
	t.Run("server mode requires bot token", func(t *testing.T) {
		t.Setenv(EnvBotToken, "")
		t.Setenv(EnvDataDir, t.TempDir())

		_, err := LoadForMode(ServerMode)
		require.Error(t, err)
		assert.Contains(t, err.Error(), EnvBotToken)
	})

	t.Run("seed mode does not", func(t *testing.T) {
		t.Setenv(EnvBotToken, "")
		t.Setenv(EnvDataDir, t.TempDir())

		_, err := LoadForMode(SeedMode)
		require.NoError(t, err)
	})
}

func validConfig() *Config {
	return &Config{
		BotToken:            "t",
		Port:                "8080",
		DataDir:             "/tmp",
		Catalog:             DefaultCatalog(),
		JobTTL:              time.Hour,
		ExpirySweepInterval: time.Hour,
		PageSize:            5,
		MaxPageSize:         50,
		SearchLimit:         20,
		Bot: BotConfig{
			UpdateTimeout:             time.Second,
			UserRateLimitBurst:        1,
			UserRateLimitRefillPerSec: 1,
			MaxConcurrentUpdates:      1,
			SendRatePerSec:            1,
		},
	}
}

func TestValidateForMode(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		mode        ValidationMode
		errContains string
	}{
		{"valid", func(*Config) {}, ServerMode, ""},
		{"page size above max", func(c *Config) { c.PageSize = 60 }, ServerMode, EnvPageSize},
		{"zero job ttl", func(c *Config) { c.JobTTL = 0 }, SeedMode, EnvJobTTL},
		{"webhook without secret", func(c *Config) { c.WebhookURL = "https://example.com/hook" }, ServerMode, EnvWebhookSecret},
		{"bad bot config", func(c *Config) { c.Bot.MaxConcurrentUpdates = 0 }, ServerMode, "max concurrent updates"},
		{"backup without bucket", func(c *Config) {
			c.Backup = BackupConfig{Enabled: true, Key: "k", Interval: time.Hour}
		}, ServerMode, EnvBackupBucket},
		{"backup ignored in seed mode", func(c *Config) {
			c.Backup = BackupConfig{Enabled: true}
		}, SeedMode, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.ValidateForMode(tt.mode)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestGetDurationEnv(t *testing.T) {
	const key = "ZEWED_TEST_DURATION"

	t.Setenv(key, "")
	assert.Equal(t, time.Minute, getDurationEnv(key, time.Minute))

	t.Setenv(key, "90s")
	assert.Equal(t, 90*time.Second, getDurationEnv(key, time.Minute))

	t.Setenv(key, "not-a-duration")
	assert.Equal(t, time.Minute, getDurationEnv(key, time.Minute))
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	t.Run("empty path uses defaults", func(t *testing.T) {
		t.Parallel()
		c, err := LoadCatalog("")
		require.NoError(t, err)
		assert.Len(t, c.JobTypes, 5)
	})

	t.Run("file overrides categories only", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		body := "categories:\n  - key: agri\n    label: Agriculture\n    emoji: \"🌾\"\n  - key: legal\n    label: Legal\n"
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		c, err := LoadCatalog(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"agri", "legal"}, c.CategoryKeys())
		assert.Equal(t, DefaultCatalog().JobTypeKeys(), c.JobTypeKeys())

		entry, ok := c.Category("agri")
		require.True(t, ok)
		assert.Equal(t, "🌾 Agriculture", entry.Display())
		_, ok = c.Category("tech")
		assert.False(t, ok)
	})

	t.Run("duplicate keys rejected", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		body := "categories:\n  - key: tech\n    label: A\n  - key: tech\n    label: B\n"
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		_, err := LoadCatalog(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate key")
	})

	t.Run("keys with colon rejected", func(t *testing.T) {
		t.Parallel()
		c := Catalog{Categories: []CatalogEntry{{Key: "a:b", Label: "x"}}}
		assert.Error(t, c.Validate())
	})
}

func TestCatalogMatch(t *testing.T) {
	t.Parallel()
	c := DefaultCatalog()

	tests := []struct {
		input   string
		wantKey string
		wantOK  bool
	}{
		{"tech", "tech", true},
		{"Technology", "tech", true},
		{"  EDUCATION ", "education", true},
		{"astronomy", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		e, ok := c.MatchCategory(tt.input)
		assert.Equal(t, tt.wantOK, ok, tt.input)
		assert.Equal(t, tt.wantKey, e.Key, tt.input)
	}

	for _, input := range []string{"full_time", "Full Time", "full-time"} {
		e, ok := c.MatchJobType(input)
		assert.True(t, ok, input)
		assert.Equal(t, "full_time", e.Key)
	}
}
