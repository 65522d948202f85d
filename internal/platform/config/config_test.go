package config

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"SITE_ADDR", "SITE_BASE_URL", "LEGACY_ORIGIN", "CURRENT_YEAR", "CMS_PROJECT_ID",
		"CMS_DATASET", "SMTP_HOST", "SMTP_PORT", "WEBHOOK_PROVIDER", "ASSET_PROBE_CONCURRENCY",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, DefaultLegacyOrigin, cfg.Archive.LegacyOrigin)
	assert.Equal(t, strconv.Itoa(time.Now().Year()), cfg.CurrentYear)
	assert.Equal(t, DefaultCMSDataset, cfg.CMS.Dataset)
	assert.False(t, cfg.CMS.Enabled())
	assert.False(t, cfg.SMTP.Enabled())
	assert.Equal(t, DefaultSMTPPort, cfg.SMTP.Port)
	assert.Equal(t, "auto", cfg.Webhook.Provider)
	assert.Equal(t, int64(DefaultProbeConcurrency), cfg.Archive.ProbeConcurrency)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("LEGACY_ORIGIN", "https://old.example.org/")
	t.Setenv("CURRENT_YEAR", "2025")
	t.Setenv("CMS_PROJECT_ID", "abc123")
	t.Setenv("SMTP_SECURE", "true")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("ASSET_PROBE_CACHE_TTL", "30m")
	t.Setenv("ARCHIVE_PAGE_CACHE_TTL", "not-a-duration")

	cfg := FromEnv()

	assert.Equal(t, "https://old.example.org", cfg.Archive.LegacyOrigin, "trailing slash trimmed")
	assert.Equal(t, "2025", cfg.CurrentYear)
	assert.True(t, cfg.CMS.Enabled())
	assert.True(t, cfg.SMTP.Secure)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, 30*time.Minute, cfg.Archive.ProbeCacheTTL)
	assert.Equal(t, DefaultPageCacheTTL, cfg.Archive.PageCacheTTL, "invalid value keeps default")
}
