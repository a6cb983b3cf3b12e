package worker

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthServer_Liveness(t *testing.T) {
	h := NewHealthServer(":0", nil)

	rec := httptest.NewRecorder()
	h.handleLiveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alive")
}

func TestHealthServer_Readiness(t *testing.T) {
	h := NewHealthServer(":0", nil)

	// 初期状態は not ready
	rec := httptest.NewRecorder()
	h.handleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h.SetReady(true)
	rec = httptest.NewRecorder()
	h.handleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")

	h.SetReady(false)
	rec = httptest.NewRecorder()
	h.handleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthServer_ServesWorkerMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	metrics.RecordMessage("success", 25*time.Millisecond)
	metrics.SetQueueDepth(3)

	h := NewHealthServer(":0", nil)
	h.ExposeMetrics(registry)

	rec := httptest.NewRecorder()
	h.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "worker_messages_processed_total")
	assert.Contains(t, body, "worker_queue_depth 3")
}

func TestHealthServer_NoMetricsRouteWithoutGatherer(t *testing.T) {
	h := NewHealthServer(":0", nil)

	rec := httptest.NewRecorder()
	h.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
