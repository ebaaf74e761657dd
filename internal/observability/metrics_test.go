package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserveResolve("generated", 120*time.Millisecond)
	m.ObserveResolve("generated", 80*time.Millisecond)
	m.ObserveResolve("cache_hit", time.Millisecond)
	m.IncKeywordsSubstituted()
	m.ObserveSweep(3, 1, 2*time.Second)

	if got := testutil.ToFloat64(m.resolveTotal.WithLabelValues("generated")); got != 2 {
		t.Fatalf("generated=%v", got)
	}
	if got := testutil.ToFloat64(m.keywordsSubstituted); got != 1 {
		t.Fatalf("substituted=%v", got)
	}
	if got := testutil.ToFloat64(m.sweepModules.WithLabelValues("failed")); got != 1 {
		t.Fatalf("sweep failed=%v", got)
	}
}

func TestMetricsHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics()
	m.ObserveHTTP(http.MethodGet, "/api/modules/:module_id/digest", 200, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `review_digest_http_requests_total{method="GET",route="/api/modules/:module_id/digest",status="200"} 1`) {
		t.Fatalf("missing http counter in:\n%s", body)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveResolve("x", time.Second)
	m.IncPersistFailure()
	m.IncPublishFailure()
	m.ObserveSweep(1, 1, time.Second)
	m.ObserveHTTP("GET", "", 200, time.Second)
	if m.Registry() != nil {
		t.Fatalf("nil metrics must have nil registry")
	}
}
