package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StorePostgres = "postgres"
	StoreMemory   = "memory"

	minSecretLength = 32
)

type Config struct {
	AppEnv    string
	Port      string
	APIPrefix string

	Store       string
	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration
	// GeneratedSecret is set when no JWT_SECRET was supplied and a per-process one was made up.
	GeneratedSecret bool

	LogLevel  string
	LogFormat string

	CORSOrigins string

	RedisAddr       string
	RedisPassword   string
	LoginRateLimit  int
	LoginRateWindow time.Duration

	RatingAuditSchedule string

	BrevoAPIKey     string
	EmailSender     string
	EmailSenderName string
}

// Load reads .env (when present) into the process environment and builds a Config from it.
// Variables already set in the environment win over .env.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from an arbitrary lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		AppEnv:              get("APP_ENV", EnvDevelopment),
		Port:                get("PORT", "5000"),
		APIPrefix:           get("API_PREFIX", "/api"),
		DatabaseURL:         get("DATABASE_URL", ""),
		JWTSecret:           get("JWT_SECRET", ""),
		LogLevel:            get("LOG_LEVEL", "info"),
		LogFormat:           get("LOG_FORMAT", "json"),
		CORSOrigins:         get("CORS_ORIGINS", "*"),
		RedisAddr:           get("REDIS_ADDR", ""),
		RedisPassword:       get("REDIS_PASSWORD", ""),
		RatingAuditSchedule: get("RATING_AUDIT_SCHEDULE", "@every 1h"),
		BrevoAPIKey:         get("BREVO_API_KEY", ""),
		EmailSender:         get("EMAIL_SENDER", ""),
		EmailSenderName:     get("EMAIL_SENDER_NAME", ""),
	}
	defaultStore := StorePostgres
	if cfg.DatabaseURL == "" && cfg.AppEnv != EnvProduction {
		defaultStore = StoreMemory
	}
	cfg.Store = get("STORE", defaultStore)

	var err error
	if cfg.JWTTTL, err = time.ParseDuration(get("JWT_TTL", "72h")); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.LoginRateLimit, err = strconv.Atoi(get("LOGIN_RATE_LIMIT", "10")); err != nil {
		return nil, fmt.Errorf("invalid LOGIN_RATE_LIMIT: %w", err)
	}
	if cfg.LoginRateWindow, err = time.ParseDuration(get("LOGIN_RATE_WINDOW", "1m")); err != nil {
		return nil, fmt.Errorf("invalid LOGIN_RATE_WINDOW: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would run production with missing secrets and fills in
// a random signing secret for local development.
func (c *Config) Validate() error {
	if c.Store != StorePostgres && c.Store != StoreMemory {
		return fmt.Errorf("unknown STORE %q", c.Store)
	}
	if c.Store == StorePostgres && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required when STORE=postgres")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}

	if c.AppEnv == EnvProduction {
		if c.Store != StorePostgres {
			return errors.New("production requires STORE=postgres")
		}
		if len(c.JWTSecret) < minSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minSecretLength)
		}
		return nil
	}

	if c.JWTSecret == "" {
		buf := make([]byte, minSecretLength)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("generate development secret: %w", err)
		}
		c.JWTSecret = hex.EncodeToString(buf)
		c.GeneratedSecret = true
	}
	return nil
}

func (c *Config) RateLimitEnabled() bool {
	return c.RedisAddr != "" && c.LoginRateLimit > 0 && c.LoginRateWindow > 0
}

// RatingAuditEnabled is false when RATING_AUDIT_SCHEDULE is "off".
func (c *Config) RatingAuditEnabled() bool {
	return c.RatingAuditSchedule != "" && !strings.EqualFold(c.RatingAuditSchedule, "off")
}

func (c *Config) EmailEnabled() bool {
	return c.BrevoAPIKey != "" && c.EmailSender != "" && c.EmailSenderName != ""
}
