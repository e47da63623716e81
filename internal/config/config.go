package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// JWT (operator API)
	JWTSecret string

	// Public links
	PublicBaseURL string
	TokenTTLDays  int

	// Payment gateway
	GatewayWebhookSecret string
	GatewayURL           string
	GatewayAPIKey        string

	// Artifact storage
	StorageDriver  string // "local" or "s3"
	StoragePath    string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3UseSSL       bool
	WKHTMLToPDFBin string

	// Background workers
	WorkerCount    int
	JobMaxAttempts int

	// CORS
	AllowedOrigins []string

	// Email (Resend)
	ResendAPIKey string
	FromEmail    string

	// Sentry
	SentryDSN string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          getEnv("ENVIRONMENT", "development"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		PublicBaseURL:        getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		TokenTTLDays:         getEnvAsInt("TOKEN_TTL_DAYS", 30),
		GatewayWebhookSecret: getEnv("GATEWAY_WEBHOOK_SECRET", ""),
		GatewayURL:           getEnv("GATEWAY_URL", ""),
		GatewayAPIKey:        getEnv("GATEWAY_API_KEY", ""),
		StorageDriver:        getEnv("STORAGE_DRIVER", "local"),
		StoragePath:          getEnv("STORAGE_PATH", "./storage"),
		S3Endpoint:           getEnv("S3_ENDPOINT", ""),
		S3AccessKey:          getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:          getEnv("S3_SECRET_KEY", ""),
		S3Bucket:             getEnv("S3_BUCKET", "artifacts"),
		S3UseSSL:             getEnvAsBool("S3_USE_SSL", true),
		WKHTMLToPDFBin:       getEnv("WKHTMLTOPDF_BIN", ""),
		WorkerCount:          getEnvAsInt("WORKER_COUNT", 5),
		JobMaxAttempts:       getEnvAsInt("JOB_MAX_ATTEMPTS", 3),
		AllowedOrigins:       getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		ResendAPIKey:         getEnv("RESEND_API_KEY", ""),
		FromEmail:            getEnv("FROM_EMAIL", "noreply@draftsign.app"),
		SentryDSN:            getEnv("SENTRY_DSN", ""),
	}

	// Validate required configuration
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	// Set default JWT secret for development
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	if cfg.StorageDriver == "s3" && cfg.S3Endpoint == "" {
		return nil, fmt.Errorf("S3_ENDPOINT is required when STORAGE_DRIVER=s3")
	}

	if cfg.TokenTTLDays <= 0 {
		cfg.TokenTTLDays = 30
	}

	return cfg, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool reads an environment variable as boolean
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
