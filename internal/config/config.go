package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseURL       string
	ServerPort        string
	RedisURL          string
	RabbitMQURL       string
	RabbitMQPrefetch  int
	LocalTimezone     string
	DefaultCollection string
	DraftTTL          time.Duration
	RateLimit         string
	AllowedOrigins    []string
	EnableHSTS        bool
	ServerDebugMode   bool
	WorkerDebugMode   bool
	OTELEnabled       bool
	OTELEndpoint      string
	LogFile           string
	MetricsPort       string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:  getEnvInt("RABBITMQ_PREFETCH", 1),
		LocalTimezone:     getEnv("LOCAL_TIMEZONE", strings.TrimPrefix(os.Getenv("TZ"), ":")),
		DefaultCollection: getEnv("DEFAULT_COLLECTION", "tasks"),
		DraftTTL:          getEnvDuration("DRAFT_TTL", 24*time.Hour),
		RateLimit:         getEnv("RATE_LIMIT", "20-S"),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		EnableHSTS:        getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode:   getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode:   getEnvBool("WORKER_DEBUG_MODE", false),
		OTELEnabled:       getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		LogFile:           getEnv("LOG_FILE", ""),
		MetricsPort:       getEnv("METRICS_PORT", "9091"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.LocalTimezone == "" {
		cfg.LocalTimezone = "UTC"
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// splitList parses a comma-separated list, dropping blanks and duplicates
func splitList(value string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}
