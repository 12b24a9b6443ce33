package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cancer-ai-portal/internal/domain"
)

func TestNewManager_Defaults(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Upload.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Upload.ProgressInterval)
	assert.Equal(t, 30*time.Minute, cfg.Navigation.FlowTTL)
	assert.Equal(t, uint32(5), cfg.Backend.CircuitBreaker.MinRequests)
	assert.True(t, cfg.Cache.Enabled)
	assert.Empty(t, cfg.Cache.RedisURL)
	assert.NoError(t, m.Validate())
	assert.True(t, m.IsDevelopment())
	assert.Same(t, &cfg.Backend, m.GetBackendConfig())
}

func TestNewManager_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORTAL_SERVER_PORT", "9191")
	t.Setenv("PORTAL_BACKEND_BASE_URL", "https://ai.example.org")
	t.Setenv("PORTAL_UPLOAD_TIMEOUT", "90s")
	t.Setenv("PORTAL_ENVIRONMENT", "production")

	m, err := NewManager()
	require.NoError(t, err)

	assert.Equal(t, 9191, m.GetServerConfig().Port)
	assert.Equal(t, "https://ai.example.org", m.GetBackendConfig().BaseURL)
	assert.Equal(t, 90*time.Second, m.GetConfig().Upload.Timeout)
	assert.True(t, m.IsProduction())
}

func TestValidateConfig(t *testing.T) {
	valid := func() *domain.Config {
		return &domain.Config{
			Server: domain.ServerConfig{Port: 8080},
			Backend: domain.BackendConfig{
				BaseURL:        "http://localhost:8000",
				RateLimit:      10,
				CircuitBreaker: domain.CircuitBreakerConfig{FailureRatio: 0.5},
			},
			Cache:      domain.CacheConfig{Enabled: true, MemoryItems: 10},
			Navigation: domain.NavigationConfig{MaxFlows: 10},
			Upload:     domain.UploadConfig{Timeout: time.Minute, ProgressInterval: time.Second},
			Logging:    domain.LoggingConfig{Level: "info"},
		}
	}

	require.NoError(t, ValidateConfig(valid()))

	tests := []struct {
		name   string
		mutate func(c *domain.Config)
		errMsg string
	}{
		{"Bad_Port", func(c *domain.Config) { c.Server.Port = 0 }, "invalid server port"},
		{"Missing_Base_URL", func(c *domain.Config) { c.Backend.BaseURL = "" }, "base URL is required"},
		{"Relative_Base_URL", func(c *domain.Config) { c.Backend.BaseURL = "/api" }, "invalid backend base URL"},
		{"Zero_Rate_Limit", func(c *domain.Config) { c.Backend.RateLimit = 0 }, "rate limit"},
		{"Bad_Failure_Ratio", func(c *domain.Config) { c.Backend.CircuitBreaker.FailureRatio = 1.5 }, "failure ratio"},
		{"Empty_Cache", func(c *domain.Config) { c.Cache.MemoryItems = 0 }, "cache memory items"},
		{"No_Upload_Timeout", func(c *domain.Config) { c.Upload.Timeout = 0 }, "upload timeout"},
		{"Bad_Log_Level", func(c *domain.Config) { c.Logging.Level = "verbose" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
