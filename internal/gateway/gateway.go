// Package gateway applies the cross-cutting request pipeline in front of the
// domain handlers: rate limiting, authentication gating, uniform error
// shaping, and an in-memory request audit log.
//
// The gateway is framework-agnostic on purpose: it routes an abstract
// (method, path, handler, client, headers) tuple to a (status, body)
// response, so the HTTP layer stays a thin adapter and the pipeline can be
// tested without a listener.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"tatami-backend/internal/domain/entity"
	"tatami-backend/pkg/ratelimit"
)

// Response is the gateway's uniform reply shape.
type Response struct {
	StatusCode int
	Body       map[string]any
}

// Handler is a routed endpoint. It returns the response body, the success
// status code, and an error. On error the body and status are ignored and
// the gateway shapes the response from the error alone.
type Handler func(ctx context.Context) (map[string]any, int, error)

// RequestLogEntry is one line of the gateway's audit trail.
type RequestLogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	ClientID   string    `json:"client_id"`
	StatusCode int       `json:"status_code"`
}

// Stats is a read-only snapshot of gateway activity.
type Stats struct {
	TotalRequests int         `json:"total_requests"`
	StatusCounts  map[int]int `json:"status_counts"`
	ActiveClients int         `json:"active_clients"`
}

// Gateway runs the request pipeline.
type Gateway struct {
	limiter *ratelimit.Limiter
	auth    *Authenticator
	metrics *Metrics
	logger  *slog.Logger
	clock   func() time.Time

	// mu protects requestLog
	mu         sync.Mutex
	requestLog []RequestLogEntry
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(g *Gateway) {
		g.clock = clock
	}
}

// WithMetrics attaches gateway metrics. Without it, metrics are skipped.
func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// New creates a Gateway.
func New(limiter *ratelimit.Limiter, auth *Authenticator, logger *slog.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if auth == nil {
		auth = NewAuthenticator(false, logger)
	}
	g := &Gateway{
		limiter: limiter,
		auth:    auth,
		logger:  logger,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Route runs one request through the pipeline: rate limit, auth gate,
// handler, error shaping, audit log.
//
// Rate-limit and auth rejections short-circuit before the handler runs.
// Handler errors are shaped once, here: validation errors become 4xx with
// their message intact; anything else becomes a 500 whose body never carries
// the internal error text.
func (g *Gateway) Route(ctx context.Context, method, path string, handler Handler, clientID string, headers http.Header) Response {
	route := method + " " + path

	// レート制限の確認
	if g.limiter != nil {
		decision, err := g.limiter.Allow(ctx, clientID, route)
		if err != nil {
			// 制限器の内部障害でリクエストを落とさない（フェイルオープン）
			g.logger.Warn("rate limiter check failed, admitting request",
				slog.String("client_id", clientID),
				slog.String("error", err.Error()))
		} else if decision.Denied() {
			g.logger.Info("request rejected by rate limiter",
				slog.String("client_id", clientID),
				slog.String("route", route),
				slog.Int64("retry_after_seconds", decision.RetryAfterSeconds()))
			return g.finish(method, path, clientID, Response{
				StatusCode: http.StatusTooManyRequests,
				Body:       map[string]any{"error": "rate limit exceeded, retry later"},
			})
		}
	}

	// 認証ゲート
	subject, err := g.auth.Authenticate(headers)
	if err != nil {
		return g.finish(method, path, clientID, Response{
			StatusCode: http.StatusUnauthorized,
			Body:       map[string]any{"error": "unauthorized, provide valid credentials"},
		})
	}
	if subject != "" {
		g.logger.Debug("authenticated request",
			slog.String("subject", subject),
			slog.String("route", route))
	}

	resp := g.invokeHandler(ctx, route, handler)
	return g.finish(method, path, clientID, resp)
}

// invokeHandler calls the handler with panic isolation and error shaping.
func (g *Gateway) invokeHandler(ctx context.Context, route string, handler Handler) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("handler panicked",
				slog.String("route", route),
				slog.Any("panic", r))
			resp = Response{
				StatusCode: http.StatusInternalServerError,
				Body:       map[string]any{"error": "internal server error"},
			}
		}
	}()

	body, status, err := handler(ctx)
	if err != nil {
		return g.shapeError(route, err)
	}
	if status == 0 {
		status = http.StatusOK
	}
	return Response{StatusCode: status, Body: body}
}

// shapeError maps a handler error to a response exactly once.
func (g *Gateway) shapeError(route string, err error) Response {
	var missingFields *entity.MissingFieldsError
	var validation *entity.ValidationError

	switch {
	case errors.As(err, &missingFields), errors.As(err, &validation),
		errors.Is(err, entity.ErrInvalidInput), errors.Is(err, entity.ErrValidationFailed):
		return Response{
			StatusCode: http.StatusBadRequest,
			Body:       map[string]any{"error": err.Error()},
		}
	case errors.Is(err, entity.ErrNotFound):
		return Response{
			StatusCode: http.StatusNotFound,
			Body:       map[string]any{"error": err.Error()},
		}
	default:
		// 内部エラーの本文は定型文のみ。詳細はサーバ側のログに残す
		g.logger.Error("handler failed",
			slog.String("route", route),
			slog.String("error", err.Error()))
		return Response{
			StatusCode: http.StatusInternalServerError,
			Body:       map[string]any{"error": "internal server error"},
		}
	}
}

// finish records the request in the audit log and metrics, then returns the
// response unchanged.
func (g *Gateway) finish(method, path, clientID string, resp Response) Response {
	entry := RequestLogEntry{
		Timestamp:  g.clock().UTC(),
		Method:     method,
		Path:       path,
		ClientID:   clientID,
		StatusCode: resp.StatusCode,
	}

	g.mu.Lock()
	g.requestLog = append(g.requestLog, entry)
	g.mu.Unlock()

	if g.metrics != nil {
		g.metrics.RecordRequest(method, path, resp.StatusCode)
	}

	g.logger.Info("request routed",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("client_id", clientID),
		slog.Int("status", resp.StatusCode))
	return resp
}

// Stats returns a snapshot of gateway activity: request totals, counts per
// status code, and the number of distinct rate-limited clients.
func (g *Gateway) Stats(ctx context.Context) Stats {
	g.mu.Lock()
	statusCounts := make(map[int]int)
	for _, entry := range g.requestLog {
		statusCounts[entry.StatusCode]++
	}
	total := len(g.requestLog)
	g.mu.Unlock()

	activeClients := 0
	if g.limiter != nil {
		if count, err := g.limiter.ActiveKeys(ctx); err == nil {
			activeClients = count
		}
	}

	return Stats{
		TotalRequests: total,
		StatusCounts:  statusCounts,
		ActiveClients: activeClients,
	}
}

// RequestLog returns a copy of the audit trail.
func (g *Gateway) RequestLog() []RequestLogEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	log := make([]RequestLogEntry, len(g.requestLog))
	copy(log, g.requestLog)
	return log
}

// String makes debugging sessions nicer.
func (e RequestLogEntry) String() string {
	return fmt.Sprintf("%s %s %s client=%s status=%d",
		e.Timestamp.Format(time.RFC3339), e.Method, e.Path, e.ClientID, e.StatusCode)
}
