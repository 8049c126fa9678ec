package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
)

func testRetryConfig() Config {
	cfg := DefaultConfig("nats://127.0.0.1:4222")
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = 5 * time.Millisecond
	cfg.RetryMultiplier = 1.5
	cfg.RetryMaxAttempts = 3
	return cfg
}

func TestRetryMiddlewareSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	handler := func(msg *message.Message) ([]*message.Message, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("transient")
		}
		return nil, nil
	}

	wrapped := retryMiddleware(testRetryConfig())(handler)
	msg := message.NewMessage("test-uuid", []byte("{}"))

	if _, err := wrapped(msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetryMiddlewareGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	handler := func(msg *message.Message) ([]*message.Message, error) {
		attempts++
		return nil, errors.New("permanent")
	}

	wrapped := retryMiddleware(testRetryConfig())(handler)
	msg := message.NewMessage("test-uuid", []byte("{}"))

	_, err := wrapped(msg)
	if err == nil {
		t.Fatal("expected an error once retries are exhausted")
	}
	if attempts != 4 {
		t.Errorf("expected 1 initial attempt + 3 retries = 4, got %d", attempts)
	}
}
