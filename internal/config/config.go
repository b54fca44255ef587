package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis (optional; advisory locks degrade to unlocked mode without it)
	RedisURL string

	// Admin API
	AdminAPIKey string

	// Reconciliation
	DriftEpsilon   decimal.Decimal
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LockTTL        time.Duration
	ReadRetries    int
	ReadRetryDelay time.Duration

	// Report export (R2/S3, optional)
	ReportAccountID       string
	ReportAccessKeyID     string
	ReportAccessKeySecret string
	ReportBucketName      string

	// CORS
	AllowedOrigins []string

	// Logging
	LogLevel string
}

func Load() *Config {
	// Load .env file in development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DatabaseURL: mustEnv("DATABASE_URL"),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Admin API
		AdminAPIKey: mustEnv("ADMIN_API_KEY"),

		// Reconciliation
		DriftEpsilon:   parseDecimal(getEnv("DRIFT_EPSILON", "0.01"), "0.01"),
		ReadTimeout:    parseDuration(getEnv("LEDGER_READ_TIMEOUT", "10s"), 10*time.Second),
		WriteTimeout:   parseDuration(getEnv("BALANCE_WRITE_TIMEOUT", "10s"), 10*time.Second),
		LockTTL:        parseDuration(getEnv("RECON_LOCK_TTL", "30s"), 30*time.Second),
		ReadRetries:    parseInt(getEnv("LEDGER_READ_RETRIES", "3"), 3),
		ReadRetryDelay: parseDuration(getEnv("LEDGER_READ_RETRY_DELAY", "200ms"), 200*time.Millisecond),

		// Report export
		ReportAccountID:       getEnv("REPORT_R2_ACCOUNT_ID", ""),
		ReportAccessKeyID:     getEnv("REPORT_R2_ACCESS_KEY_ID", ""),
		ReportAccessKeySecret: getEnv("REPORT_R2_ACCESS_KEY_SECRET", ""),
		ReportBucketName:      getEnv("REPORT_R2_BUCKET_NAME", "bitharvest-recon-reports"),

		// CORS
		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustEnv terminates the process when a required variable is missing.
// The service cannot do anything meaningful without its store credentials.
func mustEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		log.Fatalf("required environment variable %s is not set", key)
	}
	return value
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseInt(s string, defaultValue int) int {
	value, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseDecimal(s, fallback string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.RequireFromString(fallback)
	}
	return d
}

func parseStringSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if start < i {
				result = append(result, s[start:i])
			}
			start = i + 1
		}
	}
	return result
}

// ReportExportEnabled reports whether object-storage export is configured.
func (c *Config) ReportExportEnabled() bool {
	return c.ReportAccountID != "" && c.ReportAccessKeyID != "" && c.ReportAccessKeySecret != ""
}
