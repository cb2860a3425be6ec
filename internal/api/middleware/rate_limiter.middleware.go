package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/pkg/cache"
)

// RateLimiter bounds inbound HTTP requests per client IP using Valkey
// counters, so the limit holds across replicas. This is separate from the
// engine's alert-creation limiter: that one suppresses noisy alert types,
// this one protects the API surface.
func RateLimiter(valkeyCache cache.ValkeyCluster, cfg config.APILimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	maxRequests := int64(cfg.RequestsPerMinute)
	if maxRequests <= 0 {
		maxRequests = 600
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		// Rate limiting key, 1-minute windows
		window := time.Now().Unix() / 60
		key := fmt.Sprintf("api_rate_limit:%s:%d", clientIP, window)

		// Get current request count
		countBytes, err := valkeyCache.Get(c.Request.Context(), key)
		var currentCount int64 = 0

		if err == nil {
			if count, err := strconv.ParseInt(string(countBytes), 10, 64); err == nil {
				currentCount = count
			}
		}

		if currentCount >= maxRequests {
			c.Header("X-Rate-Limit-Limit", strconv.FormatInt(maxRequests, 10))
			c.Header("X-Rate-Limit-Remaining", "0")
			c.Header("X-Rate-Limit-Reset", strconv.FormatInt((window+1)*60, 10))

			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":      "error",
				"error":       "Rate limit exceeded",
				"retry_after": 60,
			})
			c.Abort()
			return
		}

		// Increment counter
		newCount := currentCount + 1
		valkeyCache.Set(c.Request.Context(), key, newCount, 2*time.Minute)

		// Set rate limit headers
		c.Header("X-Rate-Limit-Limit", strconv.FormatInt(maxRequests, 10))
		c.Header("X-Rate-Limit-Remaining", strconv.FormatInt(maxRequests-newCount, 10))
		c.Header("X-Rate-Limit-Reset", strconv.FormatInt((window+1)*60, 10))

		c.Next()
	}
}
