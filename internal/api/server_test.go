package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/alert-engine/internal/alerting"
	"github.com/platformbuilds/alert-engine/internal/api/websocket"
	"github.com/platformbuilds/alert-engine/internal/channels"
	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/internal/directory"
	"github.com/platformbuilds/alert-engine/pkg/cache"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

// newTestServer assembles a full server on an in-memory engine with the
// realtime hub as the only delivery channel.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := logger.New("error")

	hub := websocket.NewHub(log)
	engine := alerting.NewEngine(
		config.AlertingConfig{
			DefaultPriority: "medium",
			QueueInterval:   10,
			MaxAttempts:     3,
			RetryBackoff:    60000,
			DispatchTimeout: 1000,
			RateLimit:       config.RateLimitConfig{Enabled: true, Window: 300000, MaxAlerts: 10},
			Escalation:      config.EscalationConfig{Enabled: true, DefaultDelay: 300000},
			History:         config.HistoryConfig{MaxEntries: 100, RetentionHours: 168},
		},
		nil,
		directory.NewStaticDirectory(nil),
		[]channels.Notifier{channels.NewRealtimeNotifier(hub, log)},
		log,
	)
	t.Cleanup(engine.Shutdown)

	cfg := &config.Config{
		Environment: "test",
		Port:        0,
		APILimit:    config.APILimitConfig{Enabled: false},
	}
	return NewServer(cfg, log, cache.NewNoopValkeyCache(log), engine, nil, hub, "v-test")
}

func TestServerServesCoreRoutes(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()

	for _, path := range []string{"/health", "/ready", "/api/v1/health", "/api/v1/ready"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"success"`)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alert_engine_build_info")
}

func TestServerAlertLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()

	body, _ := json.Marshal(map[string]any{
		"type":    "custom_event",
		"title":   "smoke",
		"message": "server wiring check",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data struct {
			Alert struct {
				ID string `json:"id"`
			} `json:"alert"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.Alert.ID)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/alerts/"+created.Data.Alert.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServerServesOpenAPIJSON(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var spec map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spec))
	assert.Contains(t, spec, "openapi")
	assert.Contains(t, spec, "paths")
}

func TestServerRootRedirectsToSwagger(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/swagger/index.html", w.Header().Get("Location"))
}

func TestServerSearchDisabledRoute(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/alerts/search?q=x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
