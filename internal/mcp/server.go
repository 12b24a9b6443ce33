// Package mcp exposes the portal's selection and prediction flow as MCP
// tools for desktop assistants.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/cancer-ai-portal/internal/config"
	"github.com/cancer-ai-portal/internal/domain"
	"github.com/cancer-ai-portal/internal/news"
	"github.com/cancer-ai-portal/pkg/aiclient"
)

// ServerName and ServerVersion identify the server to MCP clients
const (
	ServerName    = "cancer-ai-portal"
	ServerVersion = "v1.0.0"
)

// Server is the MCP server. It needs only the AI backend; caching is in
// memory unless a Redis URL is configured.
type Server struct {
	config    *config.LiteConfig
	mcpServer *mcp.Server
	backend   domain.Backend
	news      *news.Service
	cache     *aiclient.OptionCache
	logger    *logrus.Logger
}

// ServerOption is a functional option for Server.
type ServerOption func(*Server) error

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithBackend replaces the HTTP backend client.
func WithBackend(backend domain.Backend) ServerOption {
	return func(s *Server) error {
		s.backend = backend
		return nil
	}
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.LiteConfig, opts ...ServerOption) (*Server, error) {
	server := &Server{
		config: cfg,
		logger: logrus.New(),
	}

	if cfg.LogFormat == "text" {
		server.logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		server.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	server.logger.SetLevel(level)

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.backend == nil {
		cache, err := aiclient.NewOptionCache(cfg.Cache(), server.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create option cache: %w", err)
		}
		server.cache = cache

		backendCfg := cfg.Backend()
		client := aiclient.NewClient(backendCfg, server.logger)
		server.backend = aiclient.NewResilientClient(client, cache, backendCfg.CircuitBreaker, server.logger)
	}
	server.news = news.NewService(server.backend, cfg.BackendURL, server.logger)

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)

	server.registerTools()

	server.logger.Info("MCP server initialized")
	return server, nil
}

// registerTools registers the portal tools with the MCP SDK
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_cancers",
		Description: "List the cancer types the AI backend offers for a feature context (diagnosis, prognosis or treatment).",
	}, s.handleListCancers)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_feature_options",
		Description: "List the AI data types and datasets available for a cancer type.",
	}, s.handleListFeatureOptions)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "predict_dataset",
		Description: "Upload a local CSV dataset for a cancer / AI data type / dataset selection and return the prediction report.",
	}, s.handlePredictDataset)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_news",
		Description: "List portal news articles, optionally filtered by category.",
	}, s.handleListNews)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "ai_status",
		Description: "Report which prediction models the AI backend has loaded.",
	}, s.handleAIStatus)

	s.logger.WithField("tool_count", 5).Info("Registered MCP tools")
}

// Start serves MCP over stdio until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("backend", s.config.BackendURL).Info("Starting MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Close releases the cache connections
func (s *Server) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}
