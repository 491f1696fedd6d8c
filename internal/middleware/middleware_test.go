package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

func tenantRouter(keys map[string]string) http.Handler {
	r := chi.NewRouter()
	r.Use(APIKeyAuth(keys))
	r.Get("/health", ok)
	r.Route("/v1/{tenant}", func(r chi.Router) {
		r.Use(RequireValidTenant)
		r.Get("/ping", ok)
	})
	return r
}

func do(h http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPIKeyAuth(t *testing.T) {
	h := tenantRouter(map[string]string{"shop": "k-shop", "clinic": "k-clinic"})

	assert.Equal(t, http.StatusNoContent, do(h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/v1/shop/ping", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/v1/shop/ping", "Bearer nope").Code)
	assert.Equal(t, http.StatusNoContent, do(h, http.MethodGet, "/v1/shop/ping", "Bearer k-shop").Code)
	assert.Equal(t, http.StatusNoContent, do(h, http.MethodGet, "/v1/shop/ping", "k-shop").Code)
	assert.Equal(t, http.StatusForbidden, do(h, http.MethodGet, "/v1/shop/ping", "Bearer k-clinic").Code)
}

func TestAPIKeyAuth_DisabledWithoutKeys(t *testing.T) {
	h := tenantRouter(nil)
	assert.Equal(t, http.StatusNoContent, do(h, http.MethodGet, "/v1/shop/ping", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/v1/bad%20tenant/ping", "").Code)
}

func TestTokenBucket_Refill(t *testing.T) {
	now := time.Unix(0, 0)
	tb := newTokenBucket(2, 1, func() time.Time { return now })

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestRateLimiter_MiddlewareAndSweep(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Unix(100, 0)
	rl.now = func() time.Time { return now }
	h := rl.Middleware(ok)

	req := httptest.NewRequest(http.MethodGet, "/v1/shop/analyze", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// other client has its own bucket
	req2 := httptest.NewRequest(http.MethodGet, "/v1/shop/analyze", nil)
	req2.RemoteAddr = "10.0.0.2:5555"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req2)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	now = now.Add(11 * time.Minute)
	rl.sweep(10 * time.Minute)
	rl.mu.RLock()
	assert.Empty(t, rl.buckets)
	rl.mu.RUnlock()
}

func TestRateLimiter_Disabled(t *testing.T) {
	var rl *RateLimiter
	h := rl.Middleware(ok)
	for range 5 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/shop/x", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestRateLimiter_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewRateLimiter(1, 1).Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("boom"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/shop/analyze", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "/v1/shop/analyze", entry["path"])
	assert.Equal(t, float64(http.StatusBadGateway), entry["status"])
	assert.Equal(t, float64(4), entry["bytes"])
}

func TestMetrics(t *testing.T) {
	before := GetMetrics()
	h := MetricsMiddleware(ok)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	IncrementAnalyses()

	after := GetMetrics()
	assert.Equal(t, before["requests_total"].(uint64)+1, after["requests_total"])
	assert.Equal(t, before["requests_success"].(uint64)+1, after["requests_success"])
	assert.Equal(t, before["analyses_total"].(uint64)+1, after["analyses_total"])

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `"analyses_total"`)
}

func TestHealthHandler(t *testing.T) {
	healthy := HealthHandler(map[string]HealthChecker{
		"engine": CheckerFunc(func(context.Context) error { return nil }),
	})
	rec := httptest.NewRecorder()
	healthy(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	broken := HealthHandler(map[string]HealthChecker{
		"database": CheckerFunc(func(context.Context) error { return assert.AnError }),
	})
	rec = httptest.NewRecorder()
	broken(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "unhealthy", status.Checks["database"].Status)
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateTenantID("shop_1"))
	assert.Error(t, ValidateTenantID(""))
	assert.Error(t, ValidateTenantID("shop/1"))

	assert.NoError(t, ValidateUserID(""))
	assert.NoError(t, ValidateUserID("user@example.com"))
	assert.Error(t, ValidateUserID("drop table;"))

	assert.NoError(t, ValidatePredictions("lesions", concerns.PredictionSet{{Label: "Papule", Probability: 1}}))
	assert.Error(t, ValidatePredictions("lesions", concerns.PredictionSet{{Label: " ", Probability: 0.1}}))
	assert.Error(t, ValidatePredictions("lesions", concerns.PredictionSet{{Label: "Papule", Probability: 1.2}}))
	assert.Error(t, ValidatePredictions("lesions", make(concerns.PredictionSet, MaxPredictions+1)))

	assert.NoError(t, ValidateImageContentType("image/png"))
	assert.NoError(t, ValidateImageContentType("image/jpeg; charset=binary"))
	assert.Error(t, ValidateImageContentType("text/html"))

	assert.Equal(t, []string{"Acne", "Dark Spots"}, ParseConcernList(" Acne, Dark Spots,,Acne"))
	assert.Nil(t, ParseConcernList(""))
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 100, ValidateLimit(1000))
	assert.Equal(t, 1, ValidatePage(-3))
}
