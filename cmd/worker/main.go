// Command worker runs the match queue consumer: it drains called matches and
// announces them to the notification log, with a health server and a
// scheduled queue depth report alongside.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"tatami-backend/internal/config"
	"tatami-backend/internal/infra/worker"
	"tatami-backend/internal/observability/logging"
	"tatami-backend/internal/stage"
	"tatami-backend/internal/substrate/invoker"
	"tatami-backend/internal/substrate/notification"
	"tatami-backend/internal/substrate/queue"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("state_dir", cfg.State.Dir),
		slog.String("match_queue", cfg.State.MatchQueue),
		slog.Duration("poll_interval", cfg.Worker.PollInterval),
		slog.Int("health_port", cfg.Worker.HealthPort),
		slog.String("depth_report_schedule", cfg.Worker.DepthReportSchedule))

	registry := prometheus.NewRegistry()
	consumer, err := buildConsumer(cfg, logger, registry)
	if err != nil {
		logger.Error("failed to assemble consumer", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthServer := worker.NewHealthServer(
		fmt.Sprintf(":%d", cfg.Worker.HealthPort), logger)
	healthServer.ExposeMetrics(registry)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		healthServer.SetReady(true)
		err := consumer.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// 定期的なキュー残量レポート
	if cfg.Worker.DepthReportSchedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.Worker.DepthReportSchedule, func() {
			consumer.ReportDepth(ctx)
		}); err != nil {
			logger.Error("invalid depth report schedule",
				slog.String("schedule", cfg.Worker.DepthReportSchedule),
				slog.Any("error", err))
			os.Exit(1)
		}
		c.Start()
		group.Go(func() error {
			<-ctx.Done()
			<-c.Stop().Done()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		logger.Error("worker failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

// buildConsumer wires the queue, the notification log, and the announcer
// stage into the poll loop, registering its metrics on the given registry.
func buildConsumer(cfg *config.Config, logger *slog.Logger, registry *prometheus.Registry) (*worker.Consumer, error) {
	queueStore, err := queue.NewStore(filepath.Join(cfg.State.Dir, "queues"), logger)
	if err != nil {
		return nil, err
	}

	notificationLog, err := notification.NewLog(
		filepath.Join(cfg.State.Dir, cfg.State.NotificationLog), logger)
	if err != nil {
		return nil, err
	}

	inv := invoker.New(logger, invoker.WithMetrics(invoker.NewMetrics(registry)))

	return worker.NewConsumer(worker.ConsumerConfig{
		Queue:        queueStore,
		QueueName:    cfg.State.MatchQueue,
		Invoker:      inv,
		Announcer:    stage.NewAnnouncer(notificationLog, logger),
		PollInterval: cfg.Worker.PollInterval,
		Logger:       logger,
		Metrics:      worker.NewMetrics(registry),
	}), nil
}
