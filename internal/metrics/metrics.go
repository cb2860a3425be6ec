// ================================
// internal/metrics/metrics.go - Self-monitoring for ALERT-ENGINE
// ================================

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_engine_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alert_engine_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Alert lifecycle metrics
	AlertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_engine_alerts_created_total",
			Help: "Total number of alerts accepted into the pipeline",
		},
		[]string{"type", "priority"},
	)

	AlertsSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_engine_alerts_suppressed_total",
			Help: "Total number of alerts declined before entering the pipeline",
		},
		[]string{"reason"}, // rate_limited
	)

	AlertsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_engine_alerts_processed_total",
			Help: "Total number of queue processing outcomes",
		},
		[]string{"status"}, // processed, retried, dropped
	)

	ProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alert_engine_processing_duration_seconds",
			Help:    "Time spent processing one alert through the dispatcher",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 30.0},
		},
		[]string{"priority"},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alert_engine_queue_depth",
			Help: "Number of alerts waiting in the processing queue",
		},
	)

	// Delivery metrics
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_engine_notifications_sent_total",
			Help: "Total number of channel delivery attempts",
		},
		[]string{"channel", "success"}, // email/sms/chat/push/realtime, true/false
	)

	// Escalation metrics
	EscalationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_engine_escalations_total",
			Help: "Total number of escalations fired",
		},
		[]string{"level"},
	)

	// User directory metrics
	DirectoryLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_engine_directory_lookups_total",
			Help: "Total number of user directory lookups",
		},
		[]string{"source", "result"}, // static/ldap, success/error/empty
	)

	// Valkey cache metrics
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_engine_cache_requests_total",
			Help: "Total number of cache requests",
		},
		[]string{"operation", "result"}, // get/set/delete, hit/miss/error
	)

	CacheRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alert_engine_cache_request_duration_seconds",
			Help:    "Cache request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	// Active connections
	ActiveWebSocketConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "alert_engine_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
		[]string{"stream_type"},
	)
)
