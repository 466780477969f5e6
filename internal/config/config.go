package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string // Postgres DSN; when empty the SQLite store is used
	SQLitePath  string
	RedisURL    string

	TokenSecret string
	TokenTTL    time.Duration

	OTPTTL         time.Duration
	AllowedOrigins []string
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getEnv("SQLITE_PATH", "./data/mescon.db"),
		RedisURL:    os.Getenv("REDIS_URL"),
		TokenSecret: getEnv("TOKEN_SECRET", "dev-secret-do-not-use-in-production"),
		TokenTTL:    time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		OTPTTL:      time.Duration(getEnvInt("OTP_TTL_SECONDS", 300)) * time.Second,
	}

	// Parse allowed origins (comma-separated, "*" means any)
	for _, entry := range strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, entry)
		}
	}

	// In production, require explicit secret and backing services
	if cfg.Env == "production" {
		if os.Getenv("TOKEN_SECRET") == "" {
			panic("TOKEN_SECRET is required in production")
		}
		if cfg.DatabaseURL == "" {
			panic("DATABASE_URL is required in production")
		}
		if cfg.RedisURL == "" {
			panic("REDIS_URL is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
