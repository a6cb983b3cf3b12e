package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"tatami-backend/internal/substrate/queue"
)

// HealthResponse is the JSON body of the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus reports one health check item.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthHandler answers the health endpoint. It verifies the state directory
// exists and the match queue is readable. Returns 200 when healthy, 503
// otherwise. The endpoint sits outside the gateway pipeline so probes are
// never rate limited.
type HealthHandler struct {
	StateDir  string
	Queue     *queue.Store
	QueueName string
	Version   string
	Logger    *slog.Logger
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]CheckStatus)
	allHealthy := true

	// 状態ディレクトリの確認
	if info, err := os.Stat(h.StateDir); err != nil {
		checks["state_dir"] = CheckStatus{Status: "unhealthy", Message: err.Error()}
		allHealthy = false
	} else if !info.IsDir() {
		checks["state_dir"] = CheckStatus{Status: "unhealthy", Message: "not a directory"}
		allHealthy = false
	} else {
		checks["state_dir"] = CheckStatus{
			Status:  "healthy",
			Details: map[string]any{"path": h.StateDir},
		}
	}

	// キューの確認
	if h.Queue != nil {
		if depth, err := h.Queue.Depth(r.Context(), h.QueueName); err != nil {
			checks["queue"] = CheckStatus{Status: "unhealthy", Message: err.Error()}
			allHealthy = false
		} else {
			checks["queue"] = CheckStatus{
				Status:  "healthy",
				Details: map[string]any{"name": h.QueueName, "depth": depth},
			}
		}
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil && h.Logger != nil {
		h.Logger.Error("failed to encode health response", slog.Any("error", err))
	}
}

// LiveHandler is the liveness root of the service.
type LiveHandler struct {
	Version string
}

func (h LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	// ルートは常に200。詳細は /health へ
	_ = json.NewEncoder(w).Encode(map[string]string{
		"service": "tatami-backend",
		"status":  "ok",
		"version": h.Version,
	})
}
