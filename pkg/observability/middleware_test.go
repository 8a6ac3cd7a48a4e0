package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// counterValue reads the current value of a counter child.
func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("reading counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestMetricsMiddleware_CountsByStatusClass(t *testing.T) {
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	before2xx := counterValue(t, RequestsTotal.WithLabelValues(http.MethodGet, "2xx"))
	before4xx := counterValue(t, RequestsTotal.WithLabelValues(http.MethodGet, "4xx"))

	for _, path := range []string{"/ok", "/ok", "/missing"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	after2xx := counterValue(t, RequestsTotal.WithLabelValues(http.MethodGet, "2xx"))
	after4xx := counterValue(t, RequestsTotal.WithLabelValues(http.MethodGet, "4xx"))

	if got := after2xx - before2xx; got != 2 {
		t.Errorf("2xx delta = %v, want 2", got)
	}
	if got := after4xx - before4xx; got != 1 {
		t.Errorf("4xx delta = %v, want 1", got)
	}
}

func TestMetricsMiddleware_ImplicitOK(t *testing.T) {
	// A handler that writes a body without calling WriteHeader counts as 2xx.
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))

	before := counterValue(t, RequestsTotal.WithLabelValues(http.MethodPost, "2xx"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	after := counterValue(t, RequestsTotal.WithLabelValues(http.MethodPost, "2xx"))
	if got := after - before; got != 1 {
		t.Errorf("2xx delta = %v, want 1", got)
	}
}

func TestStatusWriter_FirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	sw.WriteHeader(http.StatusTeapot)
	sw.WriteHeader(http.StatusInternalServerError)

	if sw.status != http.StatusTeapot {
		t.Errorf("status = %d, want first write %d", sw.status, http.StatusTeapot)
	}
}
