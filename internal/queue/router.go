package queue

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"
	"github.com/cenkalti/backoff/v4"

	"saveit/internal/logger"
)

// Router wraps watermill's Router with panic recovery, exponential-backoff
// retry, and poison-queue routing, shared by both the content-processing
// and clustering consumer loops. A message is Acked once its handler
// returns success. A handler error that survives the retry policy is
// published to the poison queue and the message Acked, when a poison queue
// is configured; without one the message is left un-Acked so NATS
// redelivers it, up to MaxDeliver deliveries.
type Router struct {
	router   *message.Router
	cfg      Config
	handlers map[string]*message.Handler
}

// NewRouter builds a Router. poisonPublisher may be nil to disable the
// poison queue (messages then simply redeliver forever, bounded only by
// cfg.MaxDeliver on the NATS side).
func NewRouter(cfg Config, poisonPublisher message.Publisher) (*Router, error) {
	wmLogger := watermill.NewStdLogger(false, false)

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{router: wmRouter, cfg: cfg, handlers: make(map[string]*message.Handler)}

	wmRouter.AddPlugin(plugin.SignalsHandler)
	wmRouter.AddMiddleware(middleware.Recoverer)

	if poisonPublisher != nil && cfg.DLQTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(poisonPublisher, cfg.DLQTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	// Added last so it wraps the handler directly: the poison queue only
	// sees an error once the retry policy has given up.
	wmRouter.AddMiddleware(retryMiddleware(cfg))

	return r, nil
}

// retryMiddleware retries a handler with exponential backoff and jitter
// (cenkalti/backoff/v4's ExponentialBackOff applies jitter by default via
// RandomizationFactor) before giving up and letting the error fall through
// to the poison queue or NATS redelivery, matching the job queue's exponential-
// backoff-with-jitter / configurable-max-attempts requirement.
func retryMiddleware(cfg Config) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			var produced []*message.Message
			attempt := 0

			operation := func() error {
				attempt++
				var err error
				produced, err = h(msg)
				if err != nil {
					logger.Warn("queue handler failed", "attempt", attempt, "message_uuid", msg.UUID, "error", err)
				}
				return err
			}

			policy := backoff.NewExponentialBackOff()
			policy.InitialInterval = cfg.RetryInitialInterval
			policy.MaxInterval = cfg.RetryMaxInterval
			policy.Multiplier = cfg.RetryMultiplier
			policy.MaxElapsedTime = 0

			var bounded backoff.BackOff = policy
			if cfg.RetryMaxAttempts > 0 {
				bounded = backoff.WithMaxRetries(policy, cfg.RetryMaxAttempts)
			}

			err := backoff.Retry(operation, backoff.WithContext(bounded, msg.Context()))
			return produced, err
		}
	}
}

// AddConsumerHandler registers a no-output handler consuming from queue.
func (r *Router) AddConsumerHandler(name string, queue Name, subscriber message.Subscriber, handler message.NoPublishHandlerFunc) {
	r.handlers[name] = r.router.AddConsumerHandler(name, queue.subject(), subscriber, handler)
}

// Run blocks processing registered handlers until ctx is cancelled.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running returns a channel closed once the router has started consuming.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close stops the router, waiting up to cfg.CloseTimeout for in-flight
// handlers to finish.
func (r *Router) Close() error {
	return r.router.Close()
}

// ContentHandler adapts a content-processing callback (e.g.
// ContentPipeline.Process, with its Result converted to an error) into a
// watermill handler that unmarshals the job envelope first.
func ContentHandler(process func(ctx context.Context, job Job) error) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		job, err := UnmarshalJob(msg.Payload)
		if err != nil {
			return err
		}
		return process(msg.Context(), job)
	}
}

// ClusterHandler adapts a clustering callback (e.g.
// ClusteringService.ClusterUserCategory, looped over categories when
// job.ContentCategory is nil) into a watermill handler.
func ClusterHandler(cluster func(ctx context.Context, job Job) error) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		job, err := UnmarshalJob(msg.Payload)
		if err != nil {
			return err
		}
		return cluster(msg.Context(), job)
	}
}
