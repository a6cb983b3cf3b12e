// Package worker implements the queue consumer process: a poll loop that
// drains match calls from the durable queue and announces them through the
// announcer stage, plus the health server and metrics that surround it.
package worker

import (
	"context"
	"log/slog"
	"time"

	"tatami-backend/internal/substrate/invoker"
	"tatami-backend/internal/substrate/queue"
)

// Consumer polls the match queue and hands each message to the announcer.
type Consumer struct {
	queue        *queue.Store
	queueName    string
	inv          *invoker.Invoker
	announcer    invoker.Function
	pollInterval time.Duration
	logger       *slog.Logger
	metrics      *Metrics
}

// ConsumerConfig holds the collaborators for a Consumer.
type ConsumerConfig struct {
	Queue        *queue.Store
	QueueName    string
	Invoker      *invoker.Invoker
	Announcer    invoker.Function
	PollInterval time.Duration
	Logger       *slog.Logger
	Metrics      *Metrics
}

// NewConsumer creates a Consumer.
func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	return &Consumer{
		queue:        cfg.Queue,
		queueName:    cfg.QueueName,
		inv:          cfg.Invoker,
		announcer:    cfg.Announcer,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

// Run polls until ctx is cancelled. A drained message goes straight to the
// announcer; an empty queue sleeps one poll interval. Failures to process a
// message are logged and counted but never stop the loop — the queue must
// keep draining even when a single announcement is broken.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.String("queue", c.queueName),
		slog.Duration("poll_interval", c.pollInterval))

	for {
		if err := ctx.Err(); err != nil {
			c.logger.Info("consumer stopped")
			return err
		}

		processed, err := c.poll(ctx)
		if err != nil {
			c.logger.Error("queue receive failed", slog.String("error", err.Error()))
		}
		if processed {
			// メッセージがある間は間隔を置かず次を取りに行く
			continue
		}

		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopped")
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// poll drains at most one message. It reports whether a message was taken
// from the queue, regardless of whether announcing it succeeded.
func (c *Consumer) poll(ctx context.Context) (bool, error) {
	message, ok, err := c.queue.Receive(ctx, c.queueName)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	start := time.Now()
	if _, err := c.inv.Invoke(ctx, c.announcer, invoker.Payload(message)); err != nil {
		c.logger.Error("failed to process message",
			slog.Any("luta_id", message["luta_id"]),
			slog.String("error", err.Error()))
		if c.metrics != nil {
			c.metrics.RecordMessage("failure", time.Since(start))
		}
		return true, nil
	}

	if c.metrics != nil {
		c.metrics.RecordMessage("success", time.Since(start))
		c.metrics.RecordLastSuccess()
	}
	return true, nil
}

// ReportDepth logs and records the current queue depth. It runs on a
// schedule from cmd/worker.
func (c *Consumer) ReportDepth(ctx context.Context) {
	depth, err := c.queue.Depth(ctx, c.queueName)
	if err != nil {
		c.logger.Error("queue depth check failed", slog.String("error", err.Error()))
		return
	}
	if c.metrics != nil {
		c.metrics.SetQueueDepth(depth)
	}
	c.logger.Info("queue depth",
		slog.String("queue", c.queueName),
		slog.Int("depth", depth))
}
