package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthServer serves the worker's operational endpoints:
//   - /health: liveness, always 200 while the process runs
//   - /health/ready: readiness, 200 once the consumer loop is up
//   - /metrics: Prometheus exposition, when a gatherer is attached
//
// It shuts down gracefully when its context is cancelled.
type HealthServer struct {
	addr    string
	logger  *slog.Logger
	isReady atomic.Bool
	metrics prometheus.Gatherer
	server  *http.Server
}

// NewHealthServer creates a health server listening on addr. It starts as
// not-ready; call SetReady(true) once the consumer is running.
func NewHealthServer(addr string, logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthServer{addr: addr, logger: logger}
}

// SetReady flips the readiness state.
func (h *HealthServer) SetReady(ready bool) {
	h.isReady.Store(ready)
}

// ExposeMetrics attaches a metrics gatherer to serve on /metrics. Call it
// before Start.
func (h *HealthServer) ExposeMetrics(g prometheus.Gatherer) {
	h.metrics = g
}

// routes builds the endpoint mux.
func (h *HealthServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleLiveness)
	mux.HandleFunc("/health/ready", h.handleReadiness)
	if h.metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(h.metrics, promhttp.HandlerOpts{}))
	}
	return mux
}

// Start serves until ctx is cancelled, then shuts down with a 5s grace
// period. It returns http.ErrServerClosed on a clean shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		if err := h.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.logger.Info("health server shutting down")
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return http.ErrServerClosed
	case err := <-errChan:
		return err
	}
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, http.StatusOK, "alive")
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if h.isReady.Load() {
		writeProbe(w, http.StatusOK, "ready")
		return
	}
	writeProbe(w, http.StatusServiceUnavailable, "not ready")
}

func writeProbe(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
