package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/platformbuilds/alert-engine/internal/alerting"
	"github.com/platformbuilds/alert-engine/internal/api/handlers"
	"github.com/platformbuilds/alert-engine/internal/api/middleware"
	"github.com/platformbuilds/alert-engine/internal/api/websocket"
	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/internal/monitoring"
	"github.com/platformbuilds/alert-engine/internal/search"
	"github.com/platformbuilds/alert-engine/pkg/cache"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

type Server struct {
	config      *config.Config
	logger      logger.Logger
	cache       cache.ValkeyCluster
	engine      *alerting.Engine
	searchIndex *search.AlertIndex
	hub         *websocket.Hub
	version     string
	router      *gin.Engine
	httpServer  *http.Server
}

func NewServer(
	cfg *config.Config,
	log logger.Logger,
	valkeyCache cache.ValkeyCluster,
	engine *alerting.Engine,
	searchIndex *search.AlertIndex,
	hub *websocket.Hub,
	version string,
) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	server := &Server{
		config:      cfg,
		logger:      log,
		cache:       valkeyCache,
		engine:      engine,
		searchIndex: searchIndex,
		hub:         hub,
		version:     version,
		router:      router,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// CORS for dashboard communication
	s.router.Use(middleware.CORSMiddleware(s.config.CORS))

	// Request logging
	s.router.Use(middleware.RequestLogger(s.logger))

	// Prometheus request metrics
	s.router.Use(middleware.MetricsMiddleware())

	// Per-IP rate limiting using Valkey
	s.router.Use(middleware.RateLimiter(s.cache, s.config.APILimit))

	// OpenAPI specification endpoints
	s.router.StaticFile("/api/openapi.yaml", "api/openapi.yaml")
	s.router.GET("/api/openapi.json", handlers.GetOpenAPISpec)

	// Swagger UI via gin-swagger (serves Swagger UI using external openapi.yaml)
	// Visit /swagger/index.html
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/api/openapi.yaml")))

	// Prometheus metrics endpoint
	monitoring.SetupPrometheusMetrics(s.router, s.version)
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandlerWithCache(s.engine, s.cache, s.version, s.logger)

	// Public health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)

	// Root redirect to Swagger UI for convenience
	s.router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/swagger/index.html")
	})

	// API v1 group
	v1 := s.router.Group("/api/v1")

	// Back-compat: expose health under /api/v1 as well
	v1.GET("/health", healthHandler.HealthCheck)
	v1.GET("/ready", healthHandler.ReadinessCheck)

	// Alert lifecycle endpoints
	alertHandler := handlers.NewAlertHandler(s.engine, s.searchIndex, s.cache, s.logger)
	v1.POST("/alerts", alertHandler.CreateAlert)
	v1.GET("/alerts", alertHandler.GetAlerts)
	v1.GET("/alerts/stats", alertHandler.GetStatistics)
	v1.GET("/alerts/history", alertHandler.GetHistory)
	v1.GET("/alerts/search", alertHandler.SearchAlerts)
	v1.GET("/alerts/:id", alertHandler.GetAlert)
	v1.PUT("/alerts/:id/acknowledge", alertHandler.AcknowledgeAlert)
	v1.PUT("/alerts/:id/resolve", alertHandler.ResolveAlert)

	// Channel inventory
	v1.GET("/channels", alertHandler.GetChannels)

	// WebSocket stream (alerts, events)
	if s.hub != nil {
		v1.GET("/ws/alerts", s.hub.ServeWS)
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Alert engine REST API server starting", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down API server gracefully")
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// Handler returns the underlying Gin engine so tests (or embedders) can mount it.
func (s *Server) Handler() http.Handler {
	return s.router
}
