package queue

import "time"

// Config configures both logical queues' NATS JetStream connection and
// redelivery/retry behavior. One Config is shared by both queues; per-queue
// overrides are not needed at this scale.
type Config struct {
	URL string

	// VisibilityTimeout maps to JetStream's AckWait: how long a consumer
	// has to Ack a delivered message before it becomes redeliverable.
	VisibilityTimeout time.Duration
	// MaxDeliver bounds provider-side redelivery attempts; JetStream stops
	// delivering a message after this many deliveries.
	MaxDeliver    int
	MaxAckPending int

	DurableName string
	QueueGroup  string

	// DLQTopic is the subject a message is published to once its handler
	// still fails after the in-handler retries; the message is then Acked
	// rather than redelivered. Empty disables the poison queue.
	DLQTopic string

	// Retry governs the in-handler exponential-backoff-with-jitter policy
	// applied before a handler error is allowed to fall through to the
	// poison queue or, without one, to NATS redelivery.
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
	// RetryMaxAttempts bounds in-handler retries; 0 means retry forever
	// within one delivery attempt (NATS redelivery via MaxDeliver remains
	// the outer backstop).
	RetryMaxAttempts uint64

	MaxReconnects int
	ReconnectWait time.Duration
	CloseTimeout  time.Duration
}

// DefaultConfig returns production defaults for url, matching spec.md's
// "300s" example visibility timeout and a conservative redelivery count.
func DefaultConfig(url string) Config {
	return Config{
		URL:                  url,
		VisibilityTimeout:    300 * time.Second,
		MaxDeliver:           5,
		MaxAckPending:        200,
		DurableName:          "saveit-worker",
		QueueGroup:           "saveit-workers",
		DLQTopic:             "saveit.dlq",
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     time.Minute,
		RetryMultiplier:      2.0,
		RetryMaxAttempts:     5,
		MaxReconnects:        -1,
		ReconnectWait:        2 * time.Second,
		CloseTimeout:         30 * time.Second,
	}
}

// subject returns the NATS subject a queue name publishes/subscribes on.
// Logical queue names double as subjects; no wildcard subjects are used, so
// JetStream streams can be auto-provisioned from them directly.
func (n Name) subject() string {
	return string(n)
}
