package observe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMiddleware_RecordsRequestDuration(t *testing.T) {
	m, reader := newTestMetrics(t)
	mw := Middleware(m)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("POST", "/api/session/start", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	rm := collect(t, reader)
	hist := findMetric(rm, "arionvoicer.http.request.duration")
	if hist == nil {
		t.Fatal("http request duration histogram not found")
	}
	hd := hist.Data.(metricdata.Histogram[float64])
	if len(hd.DataPoints) != 1 {
		t.Fatalf("expected 1 data point, got %d", len(hd.DataPoints))
	}
	if hd.DataPoints[0].Count != 1 {
		t.Errorf("observation count = %d, want 1", hd.DataPoints[0].Count)
	}
}

func TestMiddleware_DefaultStatusIsOK(t *testing.T) {
	m, _ := newTestMetrics(t)
	mw := Middleware(m)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No explicit WriteHeader.
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
