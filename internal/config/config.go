// Package config loads application configuration from an optional YAML file
// with environment variable overrides.
//
// Resolution order (later wins):
//  1. Built-in defaults
//  2. YAML file named by CONFIG_FILE (skipped when unset or missing)
//  3. Environment variables
//
// Loading never fails on malformed individual values; invalid entries fall
// back to the previous value with a warning so a bad deploy still boots.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	pkgconfig "tatami-backend/pkg/config"
)

// Config is the root application configuration shared by the API server and
// the worker.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	State     StateConfig     `yaml:"state"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Auth      AuthConfig      `yaml:"auth"`
	Worker    WorkerConfig    `yaml:"worker"`
	Webhook   WebhookConfig   `yaml:"webhook"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port the API server listens on.
	Port int `yaml:"port"`

	// MaxBodyBytes caps the size of accepted request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StateConfig locates the durable file substrate.
type StateConfig struct {
	// Dir is the directory holding queue files, the notification log, and
	// the repositories. Created on demand.
	Dir string `yaml:"dir"`

	// MatchQueue is the name of the queue carrying called matches.
	MatchQueue string `yaml:"match_queue"`

	// NotificationLog is the file name of the append-only notification log,
	// relative to Dir.
	NotificationLog string `yaml:"notification_log"`

	// BackupsDir is the directory the historian writes into, relative to Dir.
	BackupsDir string `yaml:"backups_dir"`
}

// RateLimitConfig holds gateway admission settings.
type RateLimitConfig struct {
	// MaxRequests is the per-client budget per window.
	MaxRequests int `yaml:"max_requests"`

	// Window is the sliding window duration.
	Window time.Duration `yaml:"window"`

	// MaxKeys bounds the number of tracked clients.
	MaxKeys int `yaml:"max_keys"`
}

// AuthConfig holds the gateway authentication policy.
type AuthConfig struct {
	// Strict rejects requests without a usable bearer token when true.
	// The default is permissive: tokens are parsed for logging only.
	Strict bool `yaml:"strict"`
}

// WorkerConfig holds the match consumer settings.
type WorkerConfig struct {
	// PollInterval is the delay between queue polls.
	PollInterval time.Duration `yaml:"poll_interval"`

	// HealthPort is the port for the worker liveness endpoints.
	HealthPort int `yaml:"health_port"`

	// DepthReportSchedule is a cron expression for the periodic queue depth
	// report. Empty disables the report.
	DepthReportSchedule string `yaml:"depth_report_schedule"`
}

// WebhookConfig holds the outbound notifier webhook settings.
type WebhookConfig struct {
	// URL receives match notifications via POST. Empty disables the webhook.
	URL string `yaml:"url"`

	// Timeout bounds each delivery attempt.
	Timeout time.Duration `yaml:"timeout"`

	// RatePerSecond caps outbound deliveries.
	RatePerSecond float64 `yaml:"rate_per_second"`

	// Burst is the delivery token bucket burst size.
	Burst int `yaml:"burst"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			MaxBodyBytes:    1 << 20, // 1 MiB
			ShutdownTimeout: 10 * time.Second,
		},
		State: StateConfig{
			Dir:             "./state",
			MatchQueue:      "lutas",
			NotificationLog: "sns_log.txt",
			BackupsDir:      "backups",
		},
		RateLimit: RateLimitConfig{
			MaxRequests: 100,
			Window:      60 * time.Second,
			MaxKeys:     10000,
		},
		Auth: AuthConfig{
			Strict: false,
		},
		Worker: WorkerConfig{
			PollInterval:        3 * time.Second,
			HealthPort:          8081,
			DepthReportSchedule: "@every 1m",
		},
		Webhook: WebhookConfig{
			Timeout:       5 * time.Second,
			RatePerSecond: 5,
			Burst:         10,
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file named
// by CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges a YAML file over the current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("config file not found, continuing with defaults",
				slog.String("path", path))
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	slog.Info("configuration loaded from file", slog.String("path", path))
	return nil
}

// applyEnv overrides individual fields from environment variables.
func (c *Config) applyEnv() {
	c.Server.Port = pkgconfig.GetEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.MaxBodyBytes = int64(pkgconfig.GetEnvInt("SERVER_MAX_BODY_BYTES", int(c.Server.MaxBodyBytes)))
	c.Server.ShutdownTimeout = pkgconfig.GetEnvDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.State.Dir = pkgconfig.GetEnvString("STATE_DIR", c.State.Dir)
	c.State.MatchQueue = pkgconfig.GetEnvString("MATCH_QUEUE", c.State.MatchQueue)
	c.State.NotificationLog = pkgconfig.GetEnvString("NOTIFICATION_LOG", c.State.NotificationLog)
	c.State.BackupsDir = pkgconfig.GetEnvString("BACKUPS_DIR", c.State.BackupsDir)

	c.RateLimit.MaxRequests = pkgconfig.GetEnvInt("RATE_LIMIT_MAX_REQUESTS", c.RateLimit.MaxRequests)
	c.RateLimit.Window = pkgconfig.GetEnvDuration("RATE_LIMIT_WINDOW", c.RateLimit.Window)
	c.RateLimit.MaxKeys = pkgconfig.GetEnvInt("RATE_LIMIT_MAX_KEYS", c.RateLimit.MaxKeys)

	c.Auth.Strict = pkgconfig.GetEnvBool("AUTH_STRICT", c.Auth.Strict)

	c.Worker.PollInterval = pkgconfig.GetEnvDuration("WORKER_POLL_INTERVAL", c.Worker.PollInterval)
	c.Worker.HealthPort = pkgconfig.GetEnvInt("WORKER_HEALTH_PORT", c.Worker.HealthPort)
	c.Worker.DepthReportSchedule = pkgconfig.GetEnvString("WORKER_DEPTH_REPORT_SCHEDULE", c.Worker.DepthReportSchedule)

	c.Webhook.URL = pkgconfig.GetEnvString("WEBHOOK_URL", c.Webhook.URL)
	c.Webhook.Timeout = pkgconfig.GetEnvDuration("WEBHOOK_TIMEOUT", c.Webhook.Timeout)
	c.Webhook.RatePerSecond = pkgconfig.GetEnvFloat("WEBHOOK_RATE_PER_SECOND", c.Webhook.RatePerSecond)
	c.Webhook.Burst = pkgconfig.GetEnvInt("WEBHOOK_BURST", c.Webhook.Burst)
}

// validate rejects configurations the application cannot run with.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.State.Dir == "" {
		return fmt.Errorf("state directory must not be empty")
	}
	if c.State.MatchQueue == "" {
		return fmt.Errorf("match queue name must not be empty")
	}
	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("rate limit max requests must be positive, got %d", c.RateLimit.MaxRequests)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %v", c.RateLimit.Window)
	}
	if c.Worker.PollInterval <= 0 {
		return fmt.Errorf("worker poll interval must be positive, got %v", c.Worker.PollInterval)
	}
	return nil
}
