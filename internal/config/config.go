package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is read from the environment once at startup and passed down
// explicitly; nothing else in the process reads environment variables.
type Config struct {
	Port int

	DatabaseURL string

	JWTSecret string
	TokenTTL  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool

	GoogleClientID string

	SeedAdminEmail    string
	SeedAdminPassword string

	ReportRefreshInterval time.Duration
}

// Load reads configuration from the environment, preferring a local .env
// file when present.
func Load() (*Config, error) {
	// Missing .env is fine in deployed environments.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                  intEnv("PORT", 8080),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		TokenTTL:              durationEnv("TOKEN_TTL", 24*time.Hour),
		RedisAddr:             stringEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               intEnv("REDIS_DB", 0),
		MinioEndpoint:         stringEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:        stringEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:        stringEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioUseSSL:           os.Getenv("MINIO_USE_SSL") == "true",
		GoogleClientID:        os.Getenv("GOOGLE_CLIENT_ID"),
		SeedAdminEmail:        os.Getenv("SEED_ADMIN_EMAIL"),
		SeedAdminPassword:     os.Getenv("SEED_ADMIN_PASSWORD"),
		ReportRefreshInterval: durationEnv("REPORT_REFRESH_INTERVAL", time.Hour),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	return cfg, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
