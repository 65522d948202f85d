package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	BaseURL        string
	LogLevel       string
	TrustedProxies string

	Archive     Archive
	CMS         CMS
	Webhook     Webhook
	SMTP        SMTP
	Redis       RedisConfig
	Secrets     Secrets
	CurrentYear string
	Environment string
}

// Archive configures the legacy content proxy and its caches.
type Archive struct {
	LegacyOrigin     string
	ProbeCacheTTL    time.Duration
	ProbeConcurrency int64
	PageCacheTTL     time.Duration
}

// CMS identifies the headless content store. An empty ProjectID means the
// CMS is not configured and in-memory stores are used instead.
type CMS struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
}

// Enabled reports whether a CMS project is configured.
func (c CMS) Enabled() bool {
	return c.ProjectID != ""
}

// Webhook configures the outbound registration notification.
type Webhook struct {
	URL      string
	Provider string
}

// SMTP configures the confirmation mail transport.
type SMTP struct {
	Host   string
	Port   int
	User   string
	Pass   string
	From   string
	Secure bool
}

// Enabled reports whether mail delivery is configured.
func (s SMTP) Enabled() bool {
	return s.Host != ""
}

// RedisConfig configures the optional shared probe cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Secrets holds the shared secrets for admin and revalidation endpoints.
type Secrets struct {
	// AdminToken is the admin UI token or its bcrypt hash.
	AdminToken       string
	RevalidateSecret string
}

// Defaults applied when the environment leaves a value unset.
const (
	DefaultAddr             = ":8080"
	DefaultBaseURL          = "http://localhost:8080"
	DefaultLegacyOrigin     = "https://legacy.example.org"
	DefaultCMSDataset       = "production"
	DefaultCMSAPIVersion    = "2024-01-01"
	DefaultSMTPPort         = 587
	DefaultProbeCacheTTL    = time.Hour
	DefaultProbeConcurrency = 8
	DefaultPageCacheTTL     = 10 * time.Minute
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:           getEnv("SITE_ADDR", DefaultAddr),
		BaseURL:        strings.TrimRight(getEnv("SITE_BASE_URL", DefaultBaseURL), "/"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TrustedProxies: os.Getenv("TRUSTED_PROXIES"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		CurrentYear:    getEnv("CURRENT_YEAR", strconv.Itoa(time.Now().Year())),
		Archive: Archive{
			LegacyOrigin:     strings.TrimRight(getEnv("LEGACY_ORIGIN", DefaultLegacyOrigin), "/"),
			ProbeCacheTTL:    getDuration("ASSET_PROBE_CACHE_TTL", DefaultProbeCacheTTL),
			ProbeConcurrency: int64(getInt("ASSET_PROBE_CONCURRENCY", DefaultProbeConcurrency)),
			PageCacheTTL:     getDuration("ARCHIVE_PAGE_CACHE_TTL", DefaultPageCacheTTL),
		},
		CMS: CMS{
			ProjectID:  os.Getenv("CMS_PROJECT_ID"),
			Dataset:    getEnv("CMS_DATASET", DefaultCMSDataset),
			APIVersion: getEnv("CMS_API_VERSION", DefaultCMSAPIVersion),
			Token:      os.Getenv("CMS_TOKEN"),
		},
		Webhook: Webhook{
			URL:      os.Getenv("WEBHOOK_URL"),
			Provider: getEnv("WEBHOOK_PROVIDER", "auto"),
		},
		SMTP: SMTP{
			Host:   os.Getenv("SMTP_HOST"),
			Port:   getInt("SMTP_PORT", DefaultSMTPPort),
			User:   os.Getenv("SMTP_USER"),
			Pass:   os.Getenv("SMTP_PASS"),
			From:   os.Getenv("SMTP_FROM"),
			Secure: os.Getenv("SMTP_SECURE") == "true",
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Secrets: Secrets{
			AdminToken:       os.Getenv("ADMIN_TOKEN"),
			RevalidateSecret: os.Getenv("REVALIDATE_SECRET"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration ignores unparsable values and keeps the default.
func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
