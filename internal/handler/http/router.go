package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"tatami-backend/internal/gateway"
	"tatami-backend/internal/handler/http/requestid"
	"tatami-backend/internal/handler/http/tournament"
	"tatami-backend/internal/substrate/queue"
	tourUC "tatami-backend/internal/usecase/tournament"
)

// RouterConfig holds everything the router needs.
type RouterConfig struct {
	Service      *tourUC.Service
	Gateway      *gateway.Gateway
	Metrics      prometheus.Gatherer
	Queue        *queue.Store
	QueueName    string
	StateDir     string
	Version      string
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// NewRouter assembles the full HTTP surface: tournament endpoints behind the
// gateway, health and metrics outside it, wrapped in the middleware stack.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	mux := http.NewServeMux()

	tournament.Register(mux, cfg.Service, cfg.Gateway)

	mux.Handle("GET /{$}", LiveHandler{Version: cfg.Version})
	mux.Handle("GET /health", &HealthHandler{
		StateDir:  cfg.StateDir,
		Queue:     cfg.Queue,
		QueueName: cfg.QueueName,
		Version:   cfg.Version,
		Logger:    cfg.Logger,
	})
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", MetricsHandler(cfg.Metrics))
	}

	return Chain(mux,
		requestid.Middleware,
		Logging(cfg.Logger),
		Recover(cfg.Logger),
		LimitRequestBody(cfg.MaxBodyBytes),
	)
}
