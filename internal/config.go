package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string
	RedisUrl    string

	// Public application URL (for email links) and the call-to-action page
	AppURL     string
	ContactURL string

	// Email Configuration
	EmailProvider string // "smtp" or "ses"
	EmailFrom     string
	EmailFromName string
	AdminEmail    string // Recipient of new lead notifications
	EmailTimeout  time.Duration

	// SMTP (development, Mailhog by default)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	// SES (production)
	SESRegion string

	// Storage Configuration
	StorageProvider string // "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string // Base directory for local file storage
	LocalStorageURL  string // Base URL for accessing local files

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string // Optional custom domain URL

	// Worker Configuration
	WorkerEnabled      bool
	WorkerConcurrency  int
	WorkerPollInterval time.Duration
	WorkerJobTimeout   time.Duration

	// Scheduler Configuration
	SchedulerEnabled  bool
	ReportSweepSpec   string        // cron spec for the unsent report sweep
	ReportRetryAfter  time.Duration // Minimum lead age before a retry is queued
	CatalogCacheTTL   time.Duration
	SessionTTL        time.Duration
	DefaultHourlyRate float64 // Rate shown before the visitor picks a currency

	// Lead submission rate limit
	LeadRateLimit  int
	LeadRateWindow time.Duration
	RateLimitStore string // "memory" or "redis"

	// Browser origins allowed to call the public API
	AllowedOrigins []string

	// Origins allowed to frame the wizard in embed mode
	FrameAncestors []string

	// Admin access control
	AdminUsername     string
	AdminPasswordHash string // bcrypt hash
	SetupKey          string // Guards catalog import

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		AppURL:     strings.TrimRight(getEnv("APP_URL", "http://localhost:8080"), "/"),
		ContactURL: getEnv("CONTACT_URL", "https://ordoflow.com/kontakt"),

		EmailProvider: getEnv("EMAIL_PROVIDER", "smtp"),
		EmailFrom:     getEnv("EMAIL_FROM", "kalkulator@ordoflow.com"),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "Ordoflow"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "kontakt@ordoflow.com"),
		EmailTimeout:  getEnvDuration("EMAIL_TIMEOUT", 15*time.Second),

		// SMTP defaults for Mailhog (development)
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SESRegion: getEnv("SES_REGION", "eu-central-1"),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/files"),

		// R2 configuration (production only)
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		// Worker defaults
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 2),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 5*time.Second),
		WorkerJobTimeout:   getEnvDuration("WORKER_JOB_TIMEOUT", 2*time.Minute),

		SchedulerEnabled:  getEnvBool("SCHEDULER_ENABLED", true),
		ReportSweepSpec:   getEnv("REPORT_SWEEP_SPEC", "@every 5m"),
		ReportRetryAfter:  getEnvDuration("REPORT_RETRY_AFTER", 10*time.Minute),
		CatalogCacheTTL:   getEnvDuration("CATALOG_CACHE_TTL", 10*time.Minute),
		SessionTTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),
		DefaultHourlyRate: getEnvFloat("DEFAULT_HOURLY_RATE", 50),

		LeadRateLimit:  getEnvInt("LEAD_RATE_LIMIT", 3),
		LeadRateWindow: getEnvDuration("LEAD_RATE_WINDOW", time.Minute),
		RateLimitStore: getEnv("RATE_LIMIT_STORE", "redis"),

		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", "*"),
		FrameAncestors: getEnvList("FRAME_ANCESTORS", "*"),

		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		SetupKey:          getEnv("SETUP_KEY", ""),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	cfg.RedisUrl = os.Getenv("REDIS_URL")
	if cfg.RedisUrl == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	if cfg.Env != "development" {
		if cfg.AdminPasswordHash == "" {
			return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is required outside development")
		}
		if cfg.SetupKey == "" {
			return nil, fmt.Errorf("SETUP_KEY is required outside development")
		}
	}

	// Validate email configuration
	switch cfg.EmailProvider {
	case "smtp":
	case "ses":
		if cfg.SESRegion == "" {
			return nil, fmt.Errorf("SES_REGION is required when EMAIL_PROVIDER is 'ses'")
		}
	default:
		return nil, fmt.Errorf("EMAIL_PROVIDER must be either 'smtp' or 'ses', got: %s", cfg.EmailProvider)
	}

	// Validate storage configuration
	if cfg.StorageProvider == "r2" {
		if cfg.R2AccountID == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return nil, fmt.Errorf("R2_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return nil, fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return nil, fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
	} else if cfg.StorageProvider != "local" {
		return nil, fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", cfg.StorageProvider)
	}

	if cfg.LeadRateLimit < 1 {
		return nil, fmt.Errorf("LEAD_RATE_LIMIT must be at least 1, got: %d", cfg.LeadRateLimit)
	}
	if cfg.RateLimitStore != "memory" && cfg.RateLimitStore != "redis" {
		return nil, fmt.Errorf("RATE_LIMIT_STORE must be either 'memory' or 'redis', got: %s", cfg.RateLimitStore)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	return parseEnv(key, fallback, strconv.Atoi)
}

func getEnvFloat(key string, fallback float64) float64 {
	return parseEnv(key, fallback, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func getEnvBool(key string, fallback bool) bool {
	return parseEnv(key, fallback, strconv.ParseBool)
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	return parseEnv(key, fallback, time.ParseDuration)
}

// parseEnv returns fallback when key is unset or does not parse.
func parseEnv[T any](key string, fallback T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	v, err := parse(value)
	if err != nil {
		return fallback
	}
	return v
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key, fallback string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, fallback), ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
