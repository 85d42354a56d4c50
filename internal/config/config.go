package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// ProviderConfig holds the connection settings for one upstream provider.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	APIHost string
}

// RedisConfig holds the connection settings for the Redis cache backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config is the service configuration.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	CacheTTL     time.Duration
	CacheBackend string
	Redis        RedisConfig

	FetchTimeout    time.Duration
	DemoCount       int
	DefaultProvider string

	RateLimit  int
	RateWindow time.Duration

	BreakerFailures uint32
	BreakerCooldown time.Duration

	Booking     ProviderConfig
	TripAdvisor ProviderConfig
}

// Load reads envFiles (default ".env") into the environment without
// overriding variables already set, then builds a Config from the
// environment. Missing env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var errs []error
	cfg := &Config{
		Port:            getEnvAsString("PORT", "8080"),
		LogLevel:        getEnvAsString("LOG_LEVEL", "info"),
		LogFormat:       getEnvAsString("LOG_FORMAT", "json"),
		CacheTTL:        getEnvAsDuration("CACHE_TTL", 900*time.Second, &errs),
		CacheBackend:    strings.ToLower(getEnvAsString("CACHE_BACKEND", CacheMemory)),
		FetchTimeout:    getEnvAsDuration("FETCH_TIMEOUT", 15*time.Second, &errs),
		DemoCount:       getEnvAsInt("DEMO_COUNT", 18, &errs),
		DefaultProvider: strings.ToLower(getEnvAsString("DEFAULT_PROVIDER", "booking")),
		RateLimit:       getEnvAsInt("RATE_LIMIT", 30, &errs),
		RateWindow:      getEnvAsDuration("RATE_WINDOW", time.Minute, &errs),
		BreakerFailures: uint32(max(getEnvAsInt("BREAKER_FAILURES", 5, &errs), 0)),
		BreakerCooldown: getEnvAsDuration("BREAKER_COOLDOWN", 30*time.Second, &errs),
		Redis: RedisConfig{
			Addr:     getEnvAsString("REDIS_ADDR", "localhost:6379"),
			Password: getEnvAsString("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0, &errs),
		},
		Booking: ProviderConfig{
			BaseURL: getEnvAsString("BOOKING_BASE_URL", ""),
			APIKey:  getEnvAsString("BOOKING_API_KEY", ""),
			APIHost: getEnvAsString("BOOKING_API_HOST", ""),
		},
		TripAdvisor: ProviderConfig{
			BaseURL: getEnvAsString("TRIPADVISOR_BASE_URL", ""),
			APIKey:  getEnvAsString("TRIPADVISOR_API_KEY", ""),
			APIHost: getEnvAsString("TRIPADVISOR_API_HOST", ""),
		},
	}

	switch cfg.CacheBackend {
	case CacheMemory, CacheRedis:
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", CacheMemory, CacheRedis, cfg.CacheBackend))
	}
	if cfg.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must be positive, got %s", cfg.CacheTTL))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnvAsString(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int, errs *[]error) int {
	raw := getEnvAsString(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

// getEnvAsDuration accepts Go durations ("90s", "15m") and bare integers as
// seconds.
func getEnvAsDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw := getEnvAsString(key, "")
	if raw == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}
