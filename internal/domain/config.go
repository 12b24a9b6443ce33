package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Backend     BackendConfig    `mapstructure:"backend"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Navigation  NavigationConfig `mapstructure:"navigation"`
	Upload      UploadConfig     `mapstructure:"upload"`
	Logging     LoggingConfig    `mapstructure:"logging"`
	MCP         MCPConfig        `mapstructure:"mcp"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// BackendConfig describes the AI prediction backend. BaseURL is the only
// place the backend location is configured; every client receives it
// through its constructor.
type BackendConfig struct {
	BaseURL        string               `mapstructure:"base_url"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	RateLimit      int                  `mapstructure:"rate_limit"` // requests per second
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// CircuitBreakerConfig tunes the breaker wrapped around backend calls
type CircuitBreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MinRequests  uint32        `mapstructure:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// CacheConfig represents option-list cache configuration. RedisURL is
// optional; without it only the in-memory tier is used.
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	MemoryItems   int           `mapstructure:"memory_items"`
	MemoryTTL     time.Duration `mapstructure:"memory_ttl"`
	RedisURL      string        `mapstructure:"redis_url"`
	RedisTTL      time.Duration `mapstructure:"redis_ttl"`
	RedisPoolSize int           `mapstructure:"redis_pool_size"`
}

// NavigationConfig bounds the in-memory flow store
type NavigationConfig struct {
	MaxFlows int           `mapstructure:"max_flows"`
	FlowTTL  time.Duration `mapstructure:"flow_ttl"`
}

// UploadConfig represents prediction upload configuration
type UploadConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
	MaxFileSize      int64         `mapstructure:"max_file_size"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName    string `mapstructure:"server_name"`
	ServerVersion string `mapstructure:"server_version"`
}
