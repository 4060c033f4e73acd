package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MaxTestDuration is the longest test a client may request.
const MaxTestDuration = 120 * time.Second

// minSessionSlack is the margin the session TTL must keep over MaxTestDuration.
const minSessionSlack = 60 * time.Second

// Config holds application configuration
type Config struct {
	Environment  string
	ServerPort   string
	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	TestSessionTTL    time.Duration
	TestSessionGrace  time.Duration
	GuestInactiveAge  time.Duration
	GuestDeleteAge    time.Duration
	GuestCookieMaxAge time.Duration
	SweepInterval     time.Duration

	StrictFingerprint bool
	StrictMetrics     bool

	JWTAccessSecret string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CSRFSecret      string

	LogLevel string
	LogFile  string

	RateLimitTextPerMinute   int
	RateLimitSubmitPerMinute int
	RateLimitAuthPerMinute   int

	// TrustedProxies may set X-Forwarded-For; empty means trust none
	TrustedProxies []string

	SeedDefaultTexts bool
}

// Load reads configuration from a .env file (if present) and environment
// variables, falling back to sensible defaults
func Load() *Config {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	return &Config{
		Environment:  getEnv("APP_ENV", "development"),
		ServerPort:   getEnv("PORT", "8080"),
		DatabaseType: getEnv("DB_TYPE", "sqlite"),
		DatabasePath: getEnv("DB_PATH", "./typeracer.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		TestSessionTTL:    time.Duration(getEnvInt("TEST_SESSION_TTL_SECONDS", 600)) * time.Second,
		TestSessionGrace:  time.Duration(getEnvInt("TEST_SESSION_GRACE_HOURS", 7*24)) * time.Hour,
		GuestInactiveAge:  time.Duration(getEnvInt("GUEST_INACTIVE_DAYS", 30)) * 24 * time.Hour,
		GuestDeleteAge:    time.Duration(getEnvInt("GUEST_DELETE_DAYS", 90)) * 24 * time.Hour,
		GuestCookieMaxAge: 30 * 24 * time.Hour,
		SweepInterval:     getEnvDuration("SWEEP_INTERVAL", time.Hour),

		StrictFingerprint: getEnvBool("STRICT_FINGERPRINT", false),
		StrictMetrics:     getEnvBool("STRICT_METRICS", false),

		JWTAccessSecret: getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		CSRFSecret:      getEnv("CSRF_SECRET", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", "logs/typeracer.log"),

		RateLimitTextPerMinute:   getEnvInt("RATE_LIMIT_TEXT_PER_MIN", 30),
		RateLimitSubmitPerMinute: getEnvInt("RATE_LIMIT_SUBMIT_PER_MIN", 10),
		RateLimitAuthPerMinute:   getEnvInt("RATE_LIMIT_AUTH_PER_MIN", 10),
		TrustedProxies:           getEnvList("TRUSTED_PROXIES"),

		SeedDefaultTexts: getEnvBool("SEED_DEFAULT_TEXTS", true),
	}
}

// IsDevelopment reports whether the app runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate checks invariants that the rest of the application relies on
func (c *Config) Validate() error {
	if c.TestSessionTTL <= MaxTestDuration+minSessionSlack {
		return fmt.Errorf("TEST_SESSION_TTL_SECONDS must exceed %d", int((MaxTestDuration + minSessionSlack).Seconds()))
	}
	if c.TestSessionGrace < 0 || c.GuestInactiveAge <= 0 || c.GuestDeleteAge < c.GuestInactiveAge {
		return errors.New("invalid retention windows")
	}
	if c.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL must be positive")
	}
	switch strings.ToLower(c.DatabaseType) {
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType)
		}
	}
	if !c.IsDevelopment() {
		if c.JWTAccessSecret == "" {
			return errors.New("JWT_ACCESS_SECRET is required")
		}
		if c.CSRFSecret == "" {
			return errors.New("CSRF_SECRET is required")
		}
	}
	return nil
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
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items
func getEnvList(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
