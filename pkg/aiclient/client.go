// Package aiclient talks to the AI prediction backend.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/cancer-ai-portal/internal/domain"
)

// maxErrorBody caps how much of a failed read response is kept for messages
const maxErrorBody = 4 << 10

// Client handles interactions with the AI backend REST API
type Client struct {
	baseURL      string
	httpClient   *http.Client
	uploadClient *http.Client
	rateLimit    *rate.Limiter
	logger       *logrus.Logger
}

// NewClient creates a new AI backend client. Uploads use a client without a
// fixed timeout; their deadline comes from the caller's context.
func NewClient(config domain.BackendConfig, logger *logrus.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 20
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		uploadClient: &http.Client{},
		rateLimit:    rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		logger:       logger,
	}
}

// BaseURL returns the backend root without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListCancers returns the cancers offered for a feature context
func (c *Client) ListCancers(ctx context.Context, feature domain.FeatureContext) ([]domain.CancerOption, error) {
	params := url.Values{"ai_feature": {feature.String()}}

	var cancers []domain.CancerOption
	if err := c.getJSON(ctx, "/cancers/", params, &cancers); err != nil {
		return nil, fmt.Errorf("failed to list cancers: %w", err)
	}
	return cancers, nil
}

// GetCancer returns the descriptive detail for one cancer
func (c *Client) GetCancer(ctx context.Context, slug string, feature domain.FeatureContext) (*domain.CancerDetail, error) {
	params := url.Values{"ai_feature": {feature.String()}}

	var detail domain.CancerDetail
	if err := c.getJSON(ctx, "/cancers/"+url.PathEscape(slug), params, &detail); err != nil {
		return nil, fmt.Errorf("failed to get cancer %s: %w", slug, err)
	}
	return &detail, nil
}

// ListFeatureOptions returns the raw (ai_data_type, dataset) rows for a cancer
func (c *Client) ListFeatureOptions(ctx context.Context, slug string, feature domain.FeatureContext) ([]domain.FeatureOption, error) {
	params := url.Values{"ai_feature": {feature.String()}}

	var rows []domain.FeatureOption
	path := "/cancers/" + url.PathEscape(slug) + "/feature-options"
	if err := c.getJSON(ctx, path, params, &rows); err != nil {
		return nil, fmt.Errorf("failed to list feature options for %s: %w", slug, err)
	}
	return rows, nil
}

// ListNews returns all editorial articles
func (c *Client) ListNews(ctx context.Context) ([]domain.NewsItem, error) {
	var items []domain.NewsItem
	if err := c.getJSON(ctx, "/news", nil, &items); err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	return items, nil
}

// GetNews returns a single article
func (c *Client) GetNews(ctx context.Context, id string) (*domain.NewsItem, error) {
	var item domain.NewsItem
	if err := c.getJSON(ctx, "/news/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, fmt.Errorf("failed to get news %s: %w", id, err)
	}
	return &item, nil
}

// Status returns the backend model status report
func (c *Client) Status(ctx context.Context) (*domain.ServiceStatus, error) {
	var status domain.ServiceStatus
	if err := c.getJSON(ctx, "/ai/status", nil, &status); err != nil {
		return nil, fmt.Errorf("failed to get AI status: %w", err)
	}
	return &status, nil
}

// Predict uploads a dataset as multipart form data. Any HTTP answer is
// returned unclassified; only transport failures produce an error.
func (c *Client) Predict(ctx context.Context, req domain.PredictRequest) (*domain.PredictResponse, error) {
	if req.Content == nil {
		return nil, fmt.Errorf("predict request has no file content")
	}

	body, contentType, err := encodePredictForm(req)
	if err != nil {
		return nil, err
	}

	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	endpoint := c.baseURL + "/cancers/" + url.PathEscape(req.CancerSlug) + "/predict"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create predict request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.uploadClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read predict response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cancer":      req.CancerSlug,
		"feature_key": req.DatasetKey,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Prediction upload completed")

	return &domain.PredictResponse{StatusCode: resp.StatusCode, Body: data}, nil
}

// encodePredictForm builds the ai_feature / feature_key / file form
func encodePredictForm(req domain.PredictRequest) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	if err := w.WriteField("ai_feature", req.Feature.String()); err != nil {
		return nil, "", fmt.Errorf("failed to write ai_feature field: %w", err)
	}
	if err := w.WriteField("feature_key", req.DatasetKey); err != nil {
		return nil, "", fmt.Errorf("failed to write feature_key field: %w", err)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "text/csv"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(req.FileName)))
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, req.Content); err != nil {
		return nil, "", fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// getJSON performs a rate limited GET and decodes the JSON body into out
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w", err)
	}

	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.BackendError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
