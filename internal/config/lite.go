// Package config provides configuration management for the portal.
// This file contains the env-only configuration used by the MCP server and
// the command line client.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/cancer-ai-portal/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It needs no config file and uses sensible defaults.
type LiteConfig struct {
	// AI backend
	BackendURL     string
	RequestTimeout time.Duration
	RateLimit      int

	// Uploads
	UploadTimeout time.Duration

	// Cache settings
	CacheMaxItems int
	CacheTTL      time.Duration
	RedisURL      string // Optional shared tier

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	return &LiteConfig{
		BackendURL:     "http://localhost:8000",
		RequestTimeout: 30 * time.Second,
		RateLimit:      20,
		UploadTimeout:  2 * time.Minute,
		CacheMaxItems:  256,
		CacheTTL:       5 * time.Minute,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// LoadLiteConfig loads configuration from environment variables and an
// optional .env file. Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	_ = godotenv.Load()

	cfg := DefaultLiteConfig()

	if v := os.Getenv("PORTAL_BACKEND_BASE_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("PORTAL_BACKEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("PORTAL_BACKEND_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimit = n
		}
	}

	if v := os.Getenv("PORTAL_UPLOAD_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.UploadTimeout = d
		}
	}

	if v := os.Getenv("PORTAL_CACHE_MEMORY_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxItems = n
		}
	}
	if v := os.Getenv("PORTAL_CACHE_MEMORY_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}
	cfg.RedisURL = os.Getenv("PORTAL_CACHE_REDIS_URL")

	if v := os.Getenv("PORTAL_LOGGING_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PORTAL_LOGGING_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// Backend converts the lite settings into the backend client configuration
func (c *LiteConfig) Backend() domain.BackendConfig {
	return domain.BackendConfig{
		BaseURL:   c.BackendURL,
		Timeout:   c.RequestTimeout,
		RateLimit: c.RateLimit,
		CircuitBreaker: domain.CircuitBreakerConfig{
			MaxRequests:  3,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			MinRequests:  5,
			FailureRatio: 0.6,
		},
	}
}

// Cache converts the lite settings into the option cache configuration
func (c *LiteConfig) Cache() domain.CacheConfig {
	return domain.CacheConfig{
		Enabled:       c.CacheMaxItems > 0,
		MemoryItems:   c.CacheMaxItems,
		MemoryTTL:     c.CacheTTL,
		RedisURL:      c.RedisURL,
		RedisTTL:      6 * c.CacheTTL,
		RedisPoolSize: 4,
	}
}
