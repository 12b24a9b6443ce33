// Package api exposes the portal's page flows over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/cancer-ai-portal/internal/domain"
	"github.com/cancer-ai-portal/internal/middleware"
	"github.com/cancer-ai-portal/internal/navigation"
	"github.com/cancer-ai-portal/internal/news"
	"github.com/cancer-ai-portal/pkg/aiclient"
)

// BackendHealth is implemented by clients that can report breaker and
// cache health.
type BackendHealth interface {
	BreakerState() string
	BaseURL() string
	Cache() *aiclient.OptionCache
}

// Dependencies are the collaborators the server routes to
type Dependencies struct {
	Backend domain.Backend
	Flows   *navigation.Store
	News    *news.Service
	Health  BackendHealth
	Logger  *logrus.Logger
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	router        *gin.Engine
	server        *http.Server

	backend  domain.Backend
	flows    *navigation.Store
	news     *news.Service
	health   BackendHealth
	logger   *logrus.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, deps Dependencies) *Server {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}
	flows := deps.Flows
	if flows == nil {
		flows = navigation.NewStore(cfg.Navigation, logger)
	}
	newsService := deps.News
	if newsService == nil {
		newsService = news.NewService(deps.Backend, cfg.Backend.BaseURL, logger)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	s := &Server{
		configManager: configManager,
		router:        router,
		backend:       deps.Backend,
		flows:         flows,
		news:          newsService,
		health:        deps.Health,
		logger:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.Server.AllowedOrigins),
		},
	}

	s.setupRoutes()
	return s
}

// Handler returns the router, for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	cfg := s.configManager.GetServerConfig()

	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	v1.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	{
		v1.GET("/features", s.handleListFeatures)
		v1.GET("/features/:feature/cancers", s.handleListCancers)
		v1.POST("/features/:feature/flows", s.handleCreateFlow)

		v1.GET("/flows/:id", s.handleGetFlow)
		v1.DELETE("/flows/:id", s.handleDeleteFlow)
		v1.PUT("/flows/:id/cancer", s.handleSelect(domain.FieldCancer))
		v1.PUT("/flows/:id/feature", s.handleSelect(domain.FieldFeature))
		v1.PUT("/flows/:id/dataset", s.handleSelect(domain.FieldDataset))
		v1.POST("/flows/:id/open/:field", s.handleOpenField)
		v1.POST("/flows/:id/popup/dismiss", s.handleDismissPopup)
		v1.POST("/flows/:id/continue", s.handleContinue)
		v1.GET("/flows/:id/result", s.handleResult)

		v1.GET("/news", s.handleListNews)
		v1.GET("/news/:id", s.handleGetNews)
		v1.GET("/status", s.handleStatus)
	}

	// Uploads carry their own timeout and progress streams are long-lived
	streams := s.router.Group("/api/v1")
	{
		streams.POST("/flows/:id/upload", s.handleUpload)
		streams.GET("/flows/:id/progress", s.handleProgress)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	cfg := s.configManager.GetConfig()

	body := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   cfg.MCP.ServerVersion,
		"flows":     s.flows.Len(),
	}

	if s.health != nil {
		breaker := s.health.BreakerState()
		if breaker == "open" {
			body["status"] = "degraded"
		}
		body["backend"] = gin.H{
			"base_url": s.health.BaseURL(),
			"breaker":  breaker,
		}
		if cache := s.health.Cache(); cache != nil {
			body["cache"] = gin.H{
				"redis": cache.HasRedis(),
				"stats": cache.Stats(),
			}
		}
	}

	c.JSON(http.StatusOK, body)
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			o = strings.TrimRight(strings.TrimSpace(o), "/")
			if o == "*" || strings.EqualFold(o, strings.TrimRight(origin, "/")) {
				return true
			}
		}
		return false
	}
}
