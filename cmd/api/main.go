// Command api runs the tournament HTTP server: the gateway-guarded
// tournament endpoints plus health and metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"tatami-backend/internal/config"
	"tatami-backend/internal/gateway"
	hhttp "tatami-backend/internal/handler/http"
	"tatami-backend/internal/infra/adapter/persistence/filestore"
	"tatami-backend/internal/infra/webhook"
	"tatami-backend/internal/observability/logging"
	"tatami-backend/internal/stage"
	"tatami-backend/internal/substrate/invoker"
	"tatami-backend/internal/substrate/notification"
	"tatami-backend/internal/substrate/queue"
	tourUC "tatami-backend/internal/usecase/tournament"
	"tatami-backend/pkg/ratelimit"
)

const version = "1.0.0"

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("state_dir", cfg.State.Dir),
		slog.String("match_queue", cfg.State.MatchQueue),
		slog.Int("rate_limit", cfg.RateLimit.MaxRequests),
		slog.Bool("auth_strict", cfg.Auth.Strict))

	registry := prometheus.NewRegistry()

	router, err := buildRouter(cfg, logger, registry)
	if err != nil {
		logger.Error("failed to assemble server", slog.Any("error", err))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("api server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		logger.Error("api server failed", slog.Any("error", err))
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("api server stopped")
}

// buildRouter wires the substrate, the repositories, the stages, the use
// case, and the gateway into the HTTP surface.
func buildRouter(cfg *config.Config, logger *slog.Logger, registry *prometheus.Registry) (http.Handler, error) {
	queueStore, err := queue.NewStore(filepath.Join(cfg.State.Dir, "queues"), logger)
	if err != nil {
		return nil, err
	}

	notificationLog, err := notification.NewLog(
		filepath.Join(cfg.State.Dir, cfg.State.NotificationLog), logger)
	if err != nil {
		return nil, err
	}

	athletes, err := filestore.NewAthleteRepository(cfg.State.Dir)
	if err != nil {
		return nil, err
	}
	brackets, err := filestore.NewBracketRepository(cfg.State.Dir)
	if err != nil {
		return nil, err
	}
	results, err := filestore.NewResultRepository(cfg.State.Dir)
	if err != nil {
		return nil, err
	}

	// 通知の外部配送はURLが設定されたときだけ
	var deliverer stage.Deliverer
	if cfg.Webhook.URL != "" {
		client, err := webhook.NewClient(webhook.ClientConfig{
			URL:           cfg.Webhook.URL,
			Timeout:       cfg.Webhook.Timeout,
			RatePerSecond: cfg.Webhook.RatePerSecond,
			Burst:         cfg.Webhook.Burst,
		}, logger)
		if err != nil {
			return nil, err
		}
		deliverer = client
		logger.Info("webhook delivery enabled", slog.String("url", cfg.Webhook.URL))
	} else {
		logger.Info("webhook delivery disabled")
	}

	registry.MustRegister(collectors.NewGoCollector())

	stages := stage.NewRegistry()
	stages.Register(stage.NewValidator())
	stages.Register(stage.NewMatchmaker(logger))
	stages.Register(stage.NewScheduler())
	stages.Register(stage.NewStatistics())
	stages.Register(stage.NewHistorian(
		filepath.Join(cfg.State.Dir, cfg.State.BackupsDir), logger))
	stages.Register(stage.NewAnnouncer(notificationLog, logger))
	stages.Register(stage.NewNotifier(notificationLog, deliverer, logger))

	inv := invoker.New(logger, invoker.WithMetrics(invoker.NewMetrics(registry)))

	svc := tourUC.NewService(tourUC.Config{
		Athletes:  athletes,
		Brackets:  brackets,
		Results:   results,
		Queue:     queueStore,
		QueueName: cfg.State.MatchQueue,
		Invoker:   inv,
		Stages:    stages,
		Logger:    logger,
	})

	limiterMetrics := ratelimit.NewPrometheusMetrics()
	limiter := ratelimit.NewLimiter(ratelimit.LimiterConfig{
		Limit:  cfg.RateLimit.MaxRequests,
		Window: cfg.RateLimit.Window,
		Store: ratelimit.NewMemoryStore(ratelimit.MemoryStoreConfig{
			MaxKeys: cfg.RateLimit.MaxKeys,
		}),
		Metrics: limiterMetrics,
	})

	gw := gateway.New(limiter,
		gateway.NewAuthenticator(cfg.Auth.Strict, logger),
		logger,
		gateway.WithMetrics(gateway.NewMetrics(registry)))

	return hhttp.NewRouter(hhttp.RouterConfig{
		Service:      svc,
		Gateway:      gw,
		Metrics:      prometheus.Gatherers{registry, limiterMetrics.Registry()},
		Queue:        queueStore,
		QueueName:    cfg.State.MatchQueue,
		StateDir:     cfg.State.Dir,
		Version:      version,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       logger,
	}), nil
}
