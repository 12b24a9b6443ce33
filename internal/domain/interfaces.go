package domain

import (
	"context"
)

// CancerCatalog serves the option lists behind the cascading selector
type CancerCatalog interface {
	ListCancers(ctx context.Context, feature FeatureContext) ([]CancerOption, error)
	GetCancer(ctx context.Context, slug string, feature FeatureContext) (*CancerDetail, error)
	ListFeatureOptions(ctx context.Context, slug string, feature FeatureContext) ([]FeatureOption, error)
}

// Predictor performs prediction uploads. Transport failures are returned as
// errors; any HTTP answer, success or not, is returned as a PredictResponse.
type Predictor interface {
	Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error)
}

// NewsSource serves editorial content
type NewsSource interface {
	ListNews(ctx context.Context) ([]NewsItem, error)
	GetNews(ctx context.Context, id string) (*NewsItem, error)
}

// StatusSource reports the AI backend model status
type StatusSource interface {
	Status(ctx context.Context) (*ServiceStatus, error)
}

// Backend is everything the portal consumes from the AI service
type Backend interface {
	CancerCatalog
	Predictor
	NewsSource
	StatusSource
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetBackendConfig() *BackendConfig
	Validate() error
}
