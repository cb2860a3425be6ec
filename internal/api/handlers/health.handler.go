package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/alert-engine/internal/alerting"
	"github.com/platformbuilds/alert-engine/pkg/cache"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

type HealthHandler struct {
	engine  *alerting.Engine
	cache   cache.ValkeyCluster // may be nil when no archive store is configured
	version string
	logger  logger.Logger
}

// NewHealthHandlerWithCache constructs a HealthHandler with explicit cache dependency.
func NewHealthHandlerWithCache(engine *alerting.Engine, c cache.ValkeyCluster, version string, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		engine:  engine,
		cache:   c,
		version: version,
		logger:  logger,
	}
}

// NewHealthHandler constructs a handler without a cache dependency;
// readiness then reports on the engine alone.
func NewHealthHandler(engine *alerting.Engine, version string, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		engine:  engine,
		cache:   nil,
		version: version,
		logger:  logger,
	}
}

// GET /health - Quick health check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "alert-engine",
		"version":   h.version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GET /ready - Readiness check. The engine is in-memory and always ready
// once started; Valkey only backs the history archive and API rate
// limiting, so an unreachable Valkey degrades the report without failing
// readiness.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]interface{})
	status := "healthy"

	stats := h.engine.GetStatistics()
	checks["engine"] = map[string]interface{}{
		"status":       "healthy",
		"active":       stats.ActiveTotal,
		"queue_length": stats.QueueLength,
	}

	if h.cache != nil {
		if err := h.cache.HealthCheck(ctx); err != nil {
			checks["valkey"] = map[string]interface{}{
				"status": "degraded",
				"error":  err.Error(),
			}
			status = "degraded"
		} else {
			checks["valkey"] = map[string]interface{}{"status": "healthy"}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"service":   "alert-engine",
		"version":   h.version,
		"checks":    checks,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
