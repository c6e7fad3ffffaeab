package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	PrivateKey string // Required: signing key, inline PEM or file path
	PublicKey  string // Optional: verify key, inline PEM or file path (derived from the private key when empty)

	AccessTokenTTL  time.Duration // Access token lifetime (default: 900s)
	RefreshTokenTTL time.Duration // Refresh token lifetime (default: 604800s)

	RateLimitMaxAttempts int           // Attempts allowed per window (default: 5)
	RateLimitWindow      time.Duration // Attempt window (default: 300s)
	RateLimitBan         time.Duration // Ban duration (default: 3600s)

	RedisURL     string // Redis connection URL (default: redis://localhost:6379/0)
	DatabaseFile string // SQLite database file (default: ./gatehouse.db)
	PepperFile   string // Pepper file for password hashing (default: ./pepper)

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	AppleClientID      string
	AppleClientSecret  string
	AppleRedirectURL   string

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Rate limiter prune interval (default: 10m)
}

// LoadConfig reads configuration from the environment, after loading a
// .env file when one exists.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		PrivateKey: os.Getenv("JWT_PRIVATE_KEY"),
		PublicKey:  os.Getenv("JWT_PUBLIC_KEY"),

		AccessTokenTTL:  getEnvSecondsOrDefault("ACCESS_TOKEN_TTL_SECONDS", 900*time.Second),
		RefreshTokenTTL: getEnvSecondsOrDefault("REFRESH_TOKEN_TTL_SECONDS", 7*24*time.Hour),

		RateLimitMaxAttempts: getEnvIntOrDefault("RATE_LIMIT_MAX_ATTEMPTS", 5),
		RateLimitWindow:      getEnvSecondsOrDefault("RATE_LIMIT_WINDOW_SECONDS", 300*time.Second),
		RateLimitBan:         getEnvSecondsOrDefault("RATE_LIMIT_BAN_SECONDS", time.Hour),

		RedisURL:     getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "gatehouse.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		GoogleClientID:     os.Getenv("OAUTH_GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("OAUTH_GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("OAUTH_GOOGLE_REDIRECT_URL"),
		AppleClientID:      os.Getenv("OAUTH_APPLE_CLIENT_ID"),
		AppleClientSecret:  os.Getenv("OAUTH_APPLE_CLIENT_SECRET"),
		AppleRedirectURL:   os.Getenv("OAUTH_APPLE_REDIRECT_URL"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvSecondsOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvSecondsOrDefault("HOUSEKEEPING_INTERVAL", 10*time.Minute),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

// getEnvSecondsOrDefault parses the value as a Go duration ("15m") or as
// a bare integer number of seconds.
func getEnvSecondsOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
