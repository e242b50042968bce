package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRateLimiterFixedWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiterSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	now = now.Add(3 * time.Minute)
	rl.sweep()
	assert.Empty(t, rl.visitors)
}

func TestRateLimiterJanitorStops(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Janitor(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestRateLimiterHandler(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", nil)
	req.RemoteAddr = "192.0.2.1:5000"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"RATE_LIMITED","message":"too many uploads, please try again later"}`, rec.Body.String())
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/api/leads/{email}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := counterValue(t, httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/leads/{email}", "404"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads/ana@example.com", nil))

	after := counterValue(t, httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/leads/{email}", "404"))
	assert.Equal(t, before+1, after)
}

func TestIngestionMetrics(t *testing.T) {
	before := counterValue(t, leadsIngested.WithLabelValues("duplicate"))
	IngestionMetrics{}.RecordIngestion(3, 2, 1)
	assert.Equal(t, before+2, counterValue(t, leadsIngested.WithLabelValues("duplicate")))
}

func TestRequestLoggerWritesAccessEntries(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(zap.New(core)))
	r.Get("/api/leads/{email}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/leads/ana@example.com", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	entries := logs.FilterMessage("http request").AllUntimed()
	require.Len(t, entries, 2)

	notFound := entries[0].ContextMap()
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "/api/leads/{email}", notFound["route"])
	assert.Equal(t, int64(http.StatusNotFound), notFound["status"])
	assert.NotEmpty(t, notFound["request_id"])

	ok := entries[1].ContextMap()
	assert.Equal(t, zap.InfoLevel, entries[1].Level)
	assert.Equal(t, int64(http.StatusOK), ok["status"])
	assert.Equal(t, int64(2), ok["bytes"])
}

func TestRequestLoggerAcceptsNilLogger(t *testing.T) {
	h := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
