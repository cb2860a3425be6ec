package monitoring

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/platformbuilds/alert-engine/internal/metrics"
)

func TestSetupPrometheusMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupPrometheusMetrics(r, "v-test")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "alert_engine_build_info") {
		t.Fatalf("build info metric missing from scrape output")
	}

	// Registering twice must not panic (duplicate build info is ignored).
	r2 := gin.New()
	SetupPrometheusMetrics(r2, "v-test")
}

func Test_RecordCacheOperation_IncrementsCounter(t *testing.T) {
	// Counters are process-global; assert the delta, not the absolute value.
	before := testutil.ToFloat64(metrics.CacheRequestsTotal.WithLabelValues("get", "hit"))
	RecordCacheOperation("get", "hit")
	after := testutil.ToFloat64(metrics.CacheRequestsTotal.WithLabelValues("get", "hit"))

	if after != before+1 {
		t.Fatalf("expected cache counter to grow by 1; got %f -> %f", before, after)
	}
}

func Test_RecordDirectoryLookup_IncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(metrics.DirectoryLookupsTotal.WithLabelValues("ldap", "success"))
	RecordDirectoryLookup("ldap", "success")
	after := testutil.ToFloat64(metrics.DirectoryLookupsTotal.WithLabelValues("ldap", "success"))

	if after != before+1 {
		t.Fatalf("expected directory counter to grow by 1; got %f -> %f", before, after)
	}
}
