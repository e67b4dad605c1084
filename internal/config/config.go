package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port        int
	LogLevel    string
	Environment string

	// Finance API
	FinanceAPIURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL        time.Duration
	CacheMaxEntries int

	// Observability
	OTLPEndpoint   string
	TracingEnabled bool

	// JWT issued by the external auth API
	JWTSecret string
	JWTIssuer string

	// Rate limiting, per authenticated user and per client IP. The IP
	// limit applies before authentication.
	RateLimitPerSecond   float64
	RateLimitBurst       int
	IPRateLimitPerSecond float64
	IPRateLimitBurst     int

	// Report snapshots
	ReportsDBPath string

	// Budget alerts; disabled when AMQPURL is empty
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Aggregation
	TrendMonths int
}

// DefaultJWTSecret is only accepted in development.
const DefaultJWTSecret = "fintrack-default-dev-secret-change-me"

// LoadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:        getEnvInt("PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: strings.ToLower(getEnv("APP_ENV", "production")),

		FinanceAPIURL: getEnv("FINANCE_API_URL", "http://localhost:8081"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL:        getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheMaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 1000),

		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),

		JWTSecret: getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTIssuer: getEnv("JWT_ISSUER", ""),

		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),

		IPRateLimitPerSecond: getEnvFloat("IP_RATE_LIMIT_PER_SECOND", 20),
		IPRateLimitBurst:     getEnvInt("IP_RATE_LIMIT_BURST", 40),

		ReportsDBPath: getEnv("REPORTS_DB_PATH", "data/reports.db"),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "budget.alert"),

		TrendMonths: getEnvInt("TREND_MONTHS", 6),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid PORT %d: must be between 1 and 65535", c.Port))
	}

	if u, err := url.Parse(c.FinanceAPIURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("invalid FINANCE_API_URL %q", c.FinanceAPIURL))
	}

	if c.HTTPTimeout <= 0 {
		problems = append(problems, "HTTP_TIMEOUT must be positive")
	}
	if c.MaxRetries < 0 {
		problems = append(problems, "MAX_RETRIES cannot be negative")
	}
	if c.MaxConcurrency < 1 {
		problems = append(problems, "MAX_CONCURRENCY must be at least 1")
	}
	if c.CacheMaxEntries < 0 {
		problems = append(problems, "CACHE_MAX_ENTRIES cannot be negative")
	}

	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET cannot be empty")
	} else if c.JWTSecret == DefaultJWTSecret && !c.DevMode() {
		problems = append(problems, "JWT_SECRET must be set outside development (APP_ENV=development or LOG_LEVEL=debug)")
	}

	if c.RateLimitPerSecond <= 0 || c.RateLimitBurst < 1 {
		problems = append(problems, "RATE_LIMIT_PER_SECOND must be positive and RATE_LIMIT_BURST at least 1")
	}
	if c.IPRateLimitPerSecond <= 0 || c.IPRateLimitBurst < 1 {
		problems = append(problems, "IP_RATE_LIMIT_PER_SECOND must be positive and IP_RATE_LIMIT_BURST at least 1")
	}

	if c.ReportsDBPath == "" {
		problems = append(problems, "REPORTS_DB_PATH cannot be empty")
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP_URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP_URL scheme %q: must be amqp or amqps", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP_EXCHANGE cannot be empty when AMQP_URL is set")
		}
	}

	if c.TrendMonths < 1 || c.TrendMonths > 36 {
		problems = append(problems, fmt.Sprintf("invalid TREND_MONTHS %d: must be between 1 and 36", c.TrendMonths))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// DevMode reports whether development-only defaults are allowed.
func (c *Config) DevMode() bool {
	switch c.Environment {
	case "development", "dev", "local":
		return true
	}
	return strings.EqualFold(c.LogLevel, "debug")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
