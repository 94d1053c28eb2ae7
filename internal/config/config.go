package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	RedisURL string

	MeiliSearchHost string
	MeiliMasterKey  string

	JWTSecret string

	TrustCacheTTL     time.Duration
	SpamDupCacheTTL   time.Duration
	DashboardCacheTTL time.Duration

	PromoteCronSpec string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		RedisURL: os.Getenv("REDIS_URL"),

		MeiliSearchHost: getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret"),

		PromoteCronSpec: getEnv("PROMOTE_CRON", "0 3 * * *"),
	}

	var err error
	cfg.TrustCacheTTL, err = parseDuration(getEnv("TRUST_CACHE_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRUST_CACHE_TTL: %w", err)
	}
	cfg.SpamDupCacheTTL, err = parseDuration(getEnv("SPAM_DUP_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SPAM_DUP_CACHE_TTL: %w", err)
	}
	cfg.DashboardCacheTTL, err = parseDuration(getEnv("DASHBOARD_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DASHBOARD_CACHE_TTL: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
