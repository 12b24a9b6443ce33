package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cancer-ai-portal/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v      *viper.Viper
	config *domain.Config
}

// NewManager creates a new configuration manager. A .env file in the
// working directory is loaded first when present.
func NewManager() (*Manager, error) {
	_ = godotenv.Load()

	m := &Manager{v: viper.New()}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := m.v

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cancer-ai-portal/")

	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and env vars cover everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	v := m.v

	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "3m")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// AI backend defaults
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.rate_limit", 20)
	v.SetDefault("backend.circuit_breaker.max_requests", 3)
	v.SetDefault("backend.circuit_breaker.interval", "60s")
	v.SetDefault("backend.circuit_breaker.timeout", "30s")
	v.SetDefault("backend.circuit_breaker.min_requests", 5)
	v.SetDefault("backend.circuit_breaker.failure_ratio", 0.6)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.memory_items", 512)
	v.SetDefault("cache.memory_ttl", "5m")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.redis_ttl", "30m")
	v.SetDefault("cache.redis_pool_size", 10)

	// Navigation store defaults
	v.SetDefault("navigation.max_flows", 10000)
	v.SetDefault("navigation.flow_ttl", "30m")

	// Upload defaults
	v.SetDefault("upload.timeout", "2m")
	v.SetDefault("upload.progress_interval", "500ms")
	v.SetDefault("upload.max_file_size", 50<<20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// MCP defaults
	v.SetDefault("mcp.server_name", "cancer-ai-portal")
	v.SetDefault("mcp.server_version", "1.0.0")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetBackendConfig returns AI backend configuration
func (m *Manager) GetBackendConfig() *domain.BackendConfig {
	return &m.config.Backend
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	return ValidateConfig(m.config)
}

// ValidateConfig checks a configuration independent of where it was loaded from
func ValidateConfig(config *domain.Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}
	u, err := url.Parse(config.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend base URL: %q", config.Backend.BaseURL)
	}
	if config.Backend.RateLimit <= 0 {
		return fmt.Errorf("backend rate limit must be positive: %d", config.Backend.RateLimit)
	}
	if r := config.Backend.CircuitBreaker.FailureRatio; r <= 0 || r > 1 {
		return fmt.Errorf("circuit breaker failure ratio must be in (0,1]: %v", r)
	}

	if config.Cache.Enabled && config.Cache.MemoryItems <= 0 {
		return fmt.Errorf("cache memory items must be positive when cache is enabled")
	}
	if config.Navigation.MaxFlows <= 0 {
		return fmt.Errorf("navigation max flows must be positive")
	}
	if config.Upload.Timeout <= 0 {
		return fmt.Errorf("upload timeout must be positive")
	}
	if config.Upload.ProgressInterval <= 0 {
		return fmt.Errorf("upload progress interval must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
