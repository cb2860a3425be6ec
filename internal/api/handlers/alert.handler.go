package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/alert-engine/internal/alerting"
	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/internal/search"
	"github.com/platformbuilds/alert-engine/pkg/cache"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

type AlertHandler struct {
	engine *alerting.Engine
	search *search.AlertIndex // nil when search is disabled
	cache  cache.ValkeyCluster
	logger logger.Logger
}

func NewAlertHandler(
	engine *alerting.Engine,
	searchIndex *search.AlertIndex,
	cache cache.ValkeyCluster,
	logger logger.Logger,
) *AlertHandler {
	return &AlertHandler{
		engine: engine,
		search: searchIndex,
		cache:  cache,
		logger: logger,
	}
}

// POST /api/v1/alerts - Create a new alert
func (h *AlertHandler) CreateAlert(c *gin.Context) {
	var req models.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Invalid alert request: " + err.Error(),
		})
		return
	}

	result, err := h.engine.CreateAlert(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, alerting.ErrEngineStopped) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "error",
				"error":  "Alert engine is shutting down",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	// A declined create is a decision, not a failure; surface it as 429 so
	// noisy senders back off.
	if result.Suppressed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"status": "error",
			"error":  result.Reason,
			"data":   gin.H{"suppressed": true},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   gin.H{"alert": result.Alert},
	})
}

// GET /api/v1/alerts - List active alerts, optionally filtered by priority
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	alerts := h.engine.ActiveAlerts()

	if p := c.Query("priority"); p != "" {
		priority := models.Priority(p)
		if !priority.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{
				"status": "error",
				"error":  "invalid priority filter: " + p,
			})
			return
		}
		filtered := alerts[:0]
		for _, alert := range alerts {
			if alert.Priority == priority {
				filtered = append(filtered, alert)
			}
		}
		alerts = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"alerts": alerts,
			"total":  len(alerts),
		},
	})
}

// GET /api/v1/alerts/:id - Fetch one active alert
func (h *AlertHandler) GetAlert(c *gin.Context) {
	id := c.Param("id")
	alert, ok := h.engine.GetAlert(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"status": "error",
			"error":  "alert not found: " + id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"alert": alert},
	})
}

// PUT /api/v1/alerts/:id/acknowledge - Acknowledge an active alert
func (h *AlertHandler) AcknowledgeAlert(c *gin.Context) {
	id := c.Param("id")

	var req models.AcknowledgeAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Invalid acknowledge request: " + err.Error(),
		})
		return
	}

	alert, err := h.engine.AcknowledgeAlert(id, req.User, req.Comment)
	if err != nil {
		if errors.Is(err, alerting.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status": "error",
				"error":  "alert not found: " + id,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"alert": alert},
	})
}

// PUT /api/v1/alerts/:id/resolve - Resolve an active alert
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	id := c.Param("id")

	var req models.ResolveAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Invalid resolve request: " + err.Error(),
		})
		return
	}

	alert, err := h.engine.ResolveAlert(id, req.User, req.Resolution)
	if err != nil {
		if errors.Is(err, alerting.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status": "error",
				"error":  "alert not found: " + id,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"alert": alert},
	})
}

// GET /api/v1/alerts/stats - Engine statistics rollup
func (h *AlertHandler) GetStatistics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   h.engine.GetStatistics(),
	})
}

// GET /api/v1/alerts/history - Lifecycle history, newest first.
// With ?alert_id= the archived trail for that alert is read back from
// Valkey instead of the in-memory ring.
func (h *AlertHandler) GetHistory(c *gin.Context) {
	if alertID := c.Query("alert_id"); alertID != "" {
		entries, err := h.cache.GetArchivedHistory(c.Request.Context(), alertID)
		if err != nil {
			h.logger.Warn("Archived history lookup failed", "alert_id", alertID, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{
				"status": "error",
				"error":  "archived history unavailable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data": gin.H{
				"entries": entries,
				"total":   len(entries),
			},
		})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries := h.engine.History(limit)
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"entries": entries,
			"total":   len(entries),
		},
	})
}

// GET /api/v1/alerts/search - Full-text search over indexed alerts
func (h *AlertHandler) SearchAlerts(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"error":  "alert search is disabled",
		})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "query parameter q is required",
		})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	hits, total, err := h.search.Search(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "search failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"hits":  hits,
			"total": total,
		},
	})
}

// GET /api/v1/channels - Registered delivery channels
func (h *AlertHandler) GetChannels(c *gin.Context) {
	channels := h.engine.Channels()
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"channels": channels,
			"total":    len(channels),
		},
	})
}
