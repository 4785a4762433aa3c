// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// RedisConfig provides settings for the barcode lookup cache.
type RedisConfig interface {
	GetRedisAddr() string
	GetBarcodeCacheTTL() time.Duration
	IsBarcodeCacheEnabled() bool
}

// ScannerConfig provides settings for scan sessions.
type ScannerConfig interface {
	// GetScanCooldown is the per-code debounce window for continuous scanning.
	GetScanCooldown() time.Duration
	// GetDetectionBuffer is the capacity of the detection event channel.
	GetDetectionBuffer() int
}

// RateLimitConfig provides settings for the per-IP request limiter.
type RateLimitConfig interface {
	GetRateLimitPerSecond() float64
	GetRateLimitBurst() int
}

// =============================================================================
// Config
// =============================================================================

// Config holds all application configuration, loaded from the environment.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	CORSAllowAll bool
	CORSOrigins  []string

	RedisAddr           string
	BarcodeCacheEnabled bool
	BarcodeCacheTTL     time.Duration

	ScanCooldown    time.Duration
	DetectionBuffer int

	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from the environment, honoring a .env file if present.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		CORSAllowAll: getEnvBool("CORS_ALLOW_ALL", false),
		CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		BarcodeCacheEnabled: getEnvBool("BARCODE_CACHE_ENABLED", false),
		BarcodeCacheTTL:     getEnvDuration("BARCODE_CACHE_TTL", 5*time.Minute),

		ScanCooldown:    getEnvDuration("SCAN_COOLDOWN", 1500*time.Millisecond),
		DetectionBuffer: getEnvInt("SCAN_DETECTION_BUFFER", 64),

		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 25),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 50),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ScanCooldown < 0 {
		return nil, fmt.Errorf("SCAN_COOLDOWN must not be negative")
	}
	if cfg.DetectionBuffer < 1 {
		return nil, fmt.Errorf("SCAN_DETECTION_BUFFER must be at least 1")
	}

	return cfg, nil
}

// =============================================================================
// Interface implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

func (c *Config) GetRedisAddr() string              { return c.RedisAddr }
func (c *Config) GetBarcodeCacheTTL() time.Duration { return c.BarcodeCacheTTL }
func (c *Config) IsBarcodeCacheEnabled() bool       { return c.BarcodeCacheEnabled }

func (c *Config) GetScanCooldown() time.Duration { return c.ScanCooldown }
func (c *Config) GetDetectionBuffer() int        { return c.DetectionBuffer }

func (c *Config) GetRateLimitPerSecond() float64 { return c.RateLimitPerSecond }
func (c *Config) GetRateLimitBurst() int         { return c.RateLimitBurst }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
