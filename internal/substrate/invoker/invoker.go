// Package invoker runs registered functions the way a serverless platform
// would: each invocation gets a fresh invocation context with a unique ID and
// timestamp, structured before/after logging, and metrics. Functions are
// plain in-process Go code; the invoker only standardizes how they are called.
package invoker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// InvocationContext carries the per-invocation metadata handed to every
// function, mirroring what a managed runtime would inject.
type InvocationContext struct {
	// InvocationID uniquely identifies one invocation.
	InvocationID string

	// FunctionName is the registered name of the invoked function.
	FunctionName string

	// InvokedAt is when the invoker dispatched the call.
	InvokedAt time.Time
}

// Payload is the JSON-object input and output of a function.
type Payload map[string]any

// Function is a unit of work the invoker can dispatch.
type Function interface {
	// Name identifies the function in logs, metrics, and the registry.
	Name() string

	// Handle processes one payload and returns the transformed payload.
	Handle(ctx context.Context, ictx InvocationContext, payload Payload) (Payload, error)
}

// Invoker dispatches functions with logging and metrics around each call.
type Invoker struct {
	logger  *slog.Logger
	metrics *Metrics
	clock   func() time.Time
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(i *Invoker) {
		i.clock = clock
	}
}

// WithMetrics attaches invocation metrics. Without it, metrics are skipped.
func WithMetrics(m *Metrics) Option {
	return func(i *Invoker) {
		i.metrics = m
	}
}

// New creates an Invoker.
func New(logger *slog.Logger, opts ...Option) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	inv := &Invoker{
		logger: logger,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke dispatches one call to fn.
//
// The invoker logs the start and outcome of every call, measures its
// duration, and returns the function's error unchanged so callers decide
// whether a failure is fatal.
func (i *Invoker) Invoke(ctx context.Context, fn Function, payload Payload) (Payload, error) {
	ictx := InvocationContext{
		InvocationID: uuid.New().String(),
		FunctionName: fn.Name(),
		InvokedAt:    i.clock(),
	}

	i.logger.Info("invoking function",
		slog.String("function", ictx.FunctionName),
		slog.String("invocation_id", ictx.InvocationID))

	start := time.Now()
	result, err := fn.Handle(ctx, ictx, payload)
	elapsed := time.Since(start)

	if i.metrics != nil {
		i.metrics.observe(ictx.FunctionName, elapsed, err)
	}

	if err != nil {
		i.logger.Error("function failed",
			slog.String("function", ictx.FunctionName),
			slog.String("invocation_id", ictx.InvocationID),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("invoke %s: %w", ictx.FunctionName, err)
	}

	i.logger.Info("function completed",
		slog.String("function", ictx.FunctionName),
		slog.String("invocation_id", ictx.InvocationID),
		slog.Duration("duration", elapsed))
	return result, nil
}
