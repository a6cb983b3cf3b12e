// Package webhook delivers JSON notifications to an external HTTP endpoint.
//
// Deliveries are guarded two ways: a token bucket caps the outbound rate, and
// a circuit breaker stops hammering an endpoint that keeps failing. Both
// guards exist because the endpoint is third-party: its availability must
// never become the tournament backend's availability.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tatami-backend/internal/resilience/circuitbreaker"
)

// Client posts notification payloads to a configured URL.
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *RateLimiter
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

// ClientConfig holds the knobs for a webhook Client.
type ClientConfig struct {
	// URL receives each delivery via POST.
	URL string

	// Timeout bounds one delivery attempt. Zero selects 5 seconds.
	Timeout time.Duration

	// RatePerSecond caps sustained deliveries. Zero selects 5.
	RatePerSecond float64

	// Burst is the token bucket burst size. Zero selects 10.
	Burst int
}

// NewClient creates a webhook client. The URL must be non-empty; callers that
// have no webhook configured should not construct a client at all.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook URL must not be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    NewRateLimiter(cfg.RatePerSecond, cfg.Burst),
		breaker:    circuitbreaker.New(circuitbreaker.WebhookConfig()),
		logger:     logger,
	}, nil
}

// Deliver posts one payload as JSON. It waits for a rate limit token, then
// runs the request through the circuit breaker. Non-2xx responses count as
// failures.
func (c *Client) Deliver(ctx context.Context, payload map[string]any) error {
	if err := c.limiter.Allow(ctx); err != nil {
		return fmt.Errorf("wait for delivery token: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.post(ctx, body)
	})
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}

	c.logger.Debug("webhook delivered", slog.String("url", c.url))
	return nil
}

// post performs one HTTP POST attempt.
func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
