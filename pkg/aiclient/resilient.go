package aiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/cancer-ai-portal/internal/domain"
)

// ResilientClient wraps the backend client with a circuit breaker and the
// option-list cache. It satisfies domain.Backend.
type ResilientClient struct {
	client  *Client
	cache   *OptionCache
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Logger
}

var (
	_ domain.Backend = (*Client)(nil)
	_ domain.Backend = (*ResilientClient)(nil)
)

// NewResilientClient creates a resilient client. cache may be nil.
func NewResilientClient(client *Client, cache *OptionCache, config domain.CircuitBreakerConfig, logger *logrus.Logger) *ResilientClient {
	if logger == nil {
		logger = logrus.New()
	}
	if config.MaxRequests == 0 {
		config.MaxRequests = 3
	}
	if config.Interval == 0 {
		config.Interval = 60 * time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MinRequests == 0 {
		config.MinRequests = 5
	}
	if config.FailureRatio == 0 {
		config.FailureRatio = 0.6
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ai-backend",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= config.MinRequests && failureRatio >= config.FailureRatio
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ResilientClient{
		client:  client,
		cache:   cache,
		breaker: breaker,
		logger:  logger,
	}
}

// isBreakerSuccess treats client-side HTTP errors and caller cancellation
// as a healthy backend
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var be *domain.BackendError
	if errors.As(err, &be) {
		return be.StatusCode < http.StatusInternalServerError
	}
	return false
}

// BreakerState returns the current breaker state name
func (r *ResilientClient) BreakerState() string {
	return r.breaker.State().String()
}

// BaseURL returns the backend root
func (r *ResilientClient) BaseURL() string {
	return r.client.BaseURL()
}

// Cache returns the option cache, or nil
func (r *ResilientClient) Cache() *OptionCache {
	return r.cache
}

// ListCancers returns cancers for a feature context, served from cache when possible
func (r *ResilientClient) ListCancers(ctx context.Context, feature domain.FeatureContext) ([]domain.CancerOption, error) {
	key := cacheKey("cancers", feature, "")

	var cached []domain.CancerOption
	if r.cache != nil && r.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	result, err := r.execute(func() (interface{}, error) {
		return r.client.ListCancers(ctx, feature)
	})
	if err != nil {
		return nil, err
	}

	cancers := result.([]domain.CancerOption)
	if r.cache != nil {
		r.cache.Set(ctx, key, cancers)
	}
	return cancers, nil
}

// GetCancer returns cancer detail, served from cache when possible
func (r *ResilientClient) GetCancer(ctx context.Context, slug string, feature domain.FeatureContext) (*domain.CancerDetail, error) {
	key := cacheKey("detail", feature, slug)

	var cached domain.CancerDetail
	if r.cache != nil && r.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := r.execute(func() (interface{}, error) {
		return r.client.GetCancer(ctx, slug, feature)
	})
	if err != nil {
		return nil, err
	}

	detail := result.(*domain.CancerDetail)
	if r.cache != nil {
		r.cache.Set(ctx, key, detail)
	}
	return detail, nil
}

// ListFeatureOptions returns option rows, served from cache when possible
func (r *ResilientClient) ListFeatureOptions(ctx context.Context, slug string, feature domain.FeatureContext) ([]domain.FeatureOption, error) {
	key := cacheKey("feature-options", feature, slug)

	var cached []domain.FeatureOption
	if r.cache != nil && r.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	result, err := r.execute(func() (interface{}, error) {
		return r.client.ListFeatureOptions(ctx, slug, feature)
	})
	if err != nil {
		return nil, err
	}

	rows := result.([]domain.FeatureOption)
	if r.cache != nil {
		r.cache.Set(ctx, key, rows)
	}
	return rows, nil
}

// Predict uploads a dataset. Non-2xx answers are returned as responses and
// do not count against the breaker; the backend reports bad files as 5xx.
func (r *ResilientClient) Predict(ctx context.Context, req domain.PredictRequest) (*domain.PredictResponse, error) {
	result, err := r.execute(func() (interface{}, error) {
		return r.client.Predict(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.PredictResponse), nil
}

// ListNews returns editorial articles
func (r *ResilientClient) ListNews(ctx context.Context) ([]domain.NewsItem, error) {
	result, err := r.execute(func() (interface{}, error) {
		return r.client.ListNews(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.NewsItem), nil
}

// GetNews returns one article
func (r *ResilientClient) GetNews(ctx context.Context, id string) (*domain.NewsItem, error) {
	result, err := r.execute(func() (interface{}, error) {
		return r.client.GetNews(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.NewsItem), nil
}

// Status returns the backend model status
func (r *ResilientClient) Status(ctx context.Context) (*domain.ServiceStatus, error) {
	result, err := r.execute(func() (interface{}, error) {
		return r.client.Status(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.ServiceStatus), nil
}

func (r *ResilientClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := r.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("AI backend unavailable: %w", err)
	}
	return result, err
}
