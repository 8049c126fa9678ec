package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"saveit/internal/logger"
)

// Publisher publishes jobs to either logical queue's JetStream subject,
// behind a circuit breaker so a down NATS cluster fails a save/pipeline
// request fast instead of blocking it on retry.
type Publisher struct {
	pub     message.Publisher
	breaker *gobreaker.CircuitBreaker[any]
	mu      sync.RWMutex
	closed  bool
}

// NewPublisher creates a resilient JetStream publisher shared by both
// logical queues; each Publish call picks its subject from the Name.
func NewPublisher(cfg Config) (*Publisher, error) {
	wmLogger := watermill.NewStdLogger(false, false)

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn("nats publisher disconnected", "error", err)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("nats publisher reconnected", "url", nc.ConnectedUrl())
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "queue-publisher",
		Timeout: 30 * time.Second,
	})

	return &Publisher{pub: pub, breaker: breaker}, nil
}

// Publish sends job to the named queue. Handlers on the other end must be
// idempotent on shared_content_id or (user_id, category), since NATS
// guarantees at-least-once delivery, not exactly-once.
func (p *Publisher) Publish(ctx context.Context, queue Name, job Job) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	payload, err := job.Marshal()
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)

	_, err = p.breaker.Execute(func() (any, error) {
		return nil, p.pub.Publish(queue.subject(), msg)
	})
	if err != nil {
		return fmt.Errorf("publish %s job to %s: %w", job.JobType, queue, err)
	}
	return nil
}

// Underlying exposes the wrapped watermill publisher for callers that need
// to hand it to middleware.PoisonQueue rather than go through Publish's
// job-envelope/circuit-breaker wrapping.
func (p *Publisher) Underlying() message.Publisher {
	return p.pub
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.pub.Close()
}
