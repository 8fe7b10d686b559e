package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL string

	// Redis (optional; enables cross-process session locks)
	RedisURL string

	// JWT
	JWTSecret     string
	JWTExpiration time.Duration

	// CORS
	CORSAllowedOrigins []string

	// Pug lifecycle
	PugTimeout    time.Duration // waiting sessions idle longer than this are canceled
	SweepInterval time.Duration // how often the timeout sweep runs
}

func Load() (*Config, error) {
	// Load .env when present
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		JWTSecret:     getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiration: parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		PugTimeout:    parseDuration(getEnv("PUG_TIMEOUT", "15m"), 15*time.Minute),
		SweepInterval: parseDuration(getEnv("SWEEP_INTERVAL", "1m"), time.Minute),
		CORSAllowedOrigins: strings.Split(
			getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"), ","),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
