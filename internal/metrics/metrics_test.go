package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAreIsolatedPerInstance(t *testing.T) {
	a := New()
	b := New()

	a.SessionsIssued.Inc()
	a.SessionsConsumed.WithLabelValues("ok").Inc()

	if got := testutil.ToFloat64(a.SessionsIssued); got != 1 {
		t.Errorf("a issued = %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.SessionsIssued); got != 0 {
		t.Errorf("b issued = %v, want 0", got)
	}
}

func TestMiddlewareRecordsPattern(t *testing.T) {
	m := New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tests/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := m.Middleware(mux)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/tests/17", nil))

	if got := testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "GET /api/tests/{id}", "418")); got != 1 {
		t.Errorf("request counter = %v, want 1", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Error("exposition should include http_requests_total")
	}
}
