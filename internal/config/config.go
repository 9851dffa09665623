package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting read from the environment (and an optional .env file).
type Config struct {
	Port             string
	DatabaseURL      string
	JWTSecret        string
	JWTTTL           time.Duration
	AllowedOrigins   string
	RedisURL         string // empty disables idempotent replay of bill creation
	IdempotencyTTL   time.Duration
	BillNumberPrefix string
}

// Load reads .env (if present) and the process environment.
// Malformed numeric or duration values are reported rather than silently defaulted.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getenv("SERVER_PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AllowedOrigins:   os.Getenv("ALLOWED_ORIGINS"),
		RedisURL:         os.Getenv("REDIS_URL"),
		BillNumberPrefix: getenv("BILL_NUMBER_PREFIX", "BILL"),
		JWTTTL:           7 * 24 * time.Hour,
		IdempotencyTTL:   24 * time.Hour,
	}

	if v := os.Getenv("JWT_TTL_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("JWT_TTL_HOURS must be a positive integer, got %q", v)
		}
		cfg.JWTTTL = time.Duration(hours) * time.Hour
	}

	if v := os.Getenv("IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("IDEMPOTENCY_TTL must be a positive duration, got %q", v)
		}
		cfg.IdempotencyTTL = d
	}

	return cfg, nil
}

// RequireServer checks the settings the HTTP server cannot start without.
func (c *Config) RequireServer() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
