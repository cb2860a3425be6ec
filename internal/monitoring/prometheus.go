// Package monitoring exposes the Prometheus scrape endpoint and thin
// recording helpers for packages that should not depend on the metric
// vectors directly.
//
// Usage:
//
//  1. Mount the metrics endpoint in your main function:
//     router := gin.New()
//     monitoring.SetupPrometheusMetrics(router, version)
//
//  2. Record operations where they happen:
//     monitoring.RecordCacheOperation("get", "hit")
//     monitoring.RecordDirectoryLookup("ldap", "success")
package monitoring

import (
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/platformbuilds/alert-engine/internal/metrics"
)

// SetupPrometheusMetrics registers build info and mounts the /metrics
// endpoint on the router. The alert_engine_* vectors register themselves
// on the default registry at package load.
func SetupPrometheusMetrics(router gin.IRoutes, version string) {
	// Ignore the error so repeated setup in tests stays harmless.
	_ = prometheus.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "alert_engine_build_info",
		Help: "Build information for ALERT-ENGINE",
		ConstLabels: prometheus.Labels{
			"version":    version,
			"component":  "alert-engine",
			"go_version": runtime.Version(),
		},
	}, func() float64 { return 1 }))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RecordCacheOperation records one cache operation outcome
// (hit, miss, success, error, conflict).
func RecordCacheOperation(operation, result string) {
	metrics.CacheRequestsTotal.WithLabelValues(operation, result).Inc()
}

// RecordDirectoryLookup records one user-directory lookup outcome.
func RecordDirectoryLookup(source, result string) {
	metrics.DirectoryLookupsTotal.WithLabelValues(source, result).Inc()
}
