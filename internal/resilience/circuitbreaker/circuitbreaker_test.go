package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestNew(t *testing.T) {
	cfg := Config{
		Name:             "test-circuit",
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          20 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}

	cb := New(cfg)

	if cb == nil {
		t.Fatal("expected circuit breaker, got nil")
	}
	if cb.Name() != "test-circuit" {
		t.Errorf("expected name='test-circuit', got %q", cb.Name())
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected initial state=Closed, got %v", cb.State())
	}
}

func TestCircuitBreaker_Execute_Success(t *testing.T) {
	cb := New(DefaultConfig("test-circuit"))

	result, err := cb.Execute(func() (interface{}, error) {
		return "success", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected result='success', got %v", result)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected state=Closed after success, got %v", cb.State())
	}
}

func TestCircuitBreaker_Execute_Failure(t *testing.T) {
	cb := New(DefaultConfig("test-circuit"))

	testErr := errors.New("test error")
	result, err := cb.Execute(func() (interface{}, error) {
		return nil, testErr
	})

	if !errors.Is(err, testErr) {
		t.Errorf("expected error=%v, got %v", testErr, err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %v", result)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("one failure should not trip the circuit, state=%v", cb.State())
	}
}

func TestCircuitBreaker_TripsOnFailureRatio(t *testing.T) {
	cfg := WebhookConfig()
	cfg.Interval = time.Hour // カウントのリセットを防ぐ
	cb := New(cfg)

	testErr := errors.New("webhook down")
	for i := 0; i < int(cfg.MinRequests); i++ {
		cb.Execute(func() (interface{}, error) {
			return nil, testErr
		})
	}

	if !cb.IsOpen() {
		t.Errorf("circuit should be open after %d consecutive failures, state=%v",
			cfg.MinRequests, cb.State())
	}

	_, err := cb.Execute(func() (interface{}, error) {
		return "should not run", nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState from open circuit, got %v", err)
	}
}

func TestWebhookConfig(t *testing.T) {
	cfg := WebhookConfig()
	if cfg.Name != "notification-webhook" {
		t.Errorf("unexpected name %q", cfg.Name)
	}
	if cfg.FailureThreshold != 0.5 {
		t.Errorf("expected failure threshold 0.5, got %v", cfg.FailureThreshold)
	}
}
