package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabaseURL    string
	DatabasePath   string
	MigrationsPath string

	SessionDuration time.Duration

	// Playdate board
	NearbyRadiusKm   float64
	CapacityEnforced bool

	// Connection suggestions
	SuggestionLimit    int
	SuggestionCacheTTL time.Duration

	// Location resolution
	LocationCacheTTL time.Duration
	LocationTimeout  time.Duration

	// Email (AWS SES)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	// OAuth sign-in
	GoogleClientID     string
	GoogleClientSecret string
	AppleClientID      string
	AppleClientSecret  string

	// Admin bootstrap: this email is granted admin on startup
	AdminEmail string

	CORSAllowedOrigins []string

	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabaseURL:    getEnv("DB_URL", ""),
		DatabasePath:   getEnv("DB_PATH", "./playdates.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		SessionDuration: getEnvDuration("SESSION_DURATION", 24*time.Hour),

		NearbyRadiusKm:   getEnvFloat("NEARBY_RADIUS_KM", 10),
		CapacityEnforced: getEnvBool("CAPACITY_ENFORCED", false),

		SuggestionLimit:    getEnvInt("SUGGESTION_LIMIT", 3),
		SuggestionCacheTTL: getEnvDuration("SUGGESTION_CACHE_TTL", 5*time.Minute),

		LocationCacheTTL: getEnvDuration("LOCATION_CACHE_TTL", 30*time.Minute),
		LocationTimeout:  getEnvDuration("LOCATION_TIMEOUT", 5*time.Second),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Playdates"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		AppleClientID:      getEnv("APPLE_CLIENT_ID", ""),
		AppleClientSecret:  getEnv("APPLE_CLIENT_SECRET", ""),

		AdminEmail: getEnv("ADMIN_EMAIL", ""),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				items = append(items, trimmed)
			}
		}
		if len(items) > 0 {
			return items
		}
	}
	return defaultValue
}
