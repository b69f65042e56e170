package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName    string
	AppEnv     string
	AppURL     string
	Port       string
	AppTagline string

	// CMS (headless content API)
	CMSAPIURL       string
	CMSAccessToken  string
	CMSDocumentType string
	CMSPageSize     int
	CMSTimeout      time.Duration

	// Page building
	PrerenderOnStart   bool
	RevalidateInterval time.Duration
	FallbackTimeout    time.Duration
	NotFoundTTL        time.Duration

	// Observability (optional)
	SentryDSN string

	// Export (local directory, or S3-compatible bucket when S3Bucket is set)
	ExportDir   string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string // Optional: for S3-compatible services (MinIO, R2, etc.)
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:    envString("APP_NAME", "spacenews"),
		AppEnv:     envString("APP_ENV", "development"),
		AppURL:     envString("APP_URL", "http://localhost:8090"),
		Port:       envString("PORT", "8090"),
		AppTagline: envString("APP_TAGLINE", "Notícias do espaço"),

		// CMS
		CMSAPIURL:       envRequired("CMS_API_URL"), // e.g. https://spacenews.cdn.prismic.io/api/v2
		CMSAccessToken:  envString("CMS_ACCESS_TOKEN", ""),
		CMSDocumentType: envString("CMS_DOCUMENT_TYPE", "posts"),
		CMSPageSize:     envInt("CMS_PAGE_SIZE", 1),
		CMSTimeout:      envDuration("CMS_TIMEOUT", 10*time.Second),

		// Page building
		PrerenderOnStart:   envBool("PRERENDER_ON_START", true),
		RevalidateInterval: envDuration("REVALIDATE_INTERVAL", 8*time.Hour), // 8 hours
		FallbackTimeout:    envDuration("FALLBACK_TIMEOUT", 30*time.Second),
		NotFoundTTL:        envDuration("NOT_FOUND_TTL", 5*time.Minute),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Export
		ExportDir:   envString("EXPORT_DIR", "dist"),
		S3Region:    envString("S3_REGION", "us-east-1"),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),
	}

	if cfg.CMSPageSize < 1 {
		slog.Warn("config CMS_PAGE_SIZE must be positive, using 1", "value", cfg.CMSPageSize)
		cfg.CMSPageSize = 1
	}

	return cfg
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UseS3 reports whether exports should go to an S3-compatible bucket.
func (c *Config) UseS3() bool {
	return c.S3Bucket != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// The CMS access token and storage credentials are excluded.
// Safe to expose in ctx, templates and client-facing contexts.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:    c.AppName,
		AppEnv:     c.AppEnv,
		AppURL:     c.AppURL,
		Port:       c.Port,
		AppTagline: c.AppTagline,

		CMSDocumentType: c.CMSDocumentType,
		CMSPageSize:     c.CMSPageSize,
	}
}
