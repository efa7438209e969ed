// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/socialrelay/internal/logging"
	"github.com/tomtom215/socialrelay/internal/metrics"
	"github.com/tomtom215/socialrelay/internal/models"
)

// HandlerFunc processes one message payload. Returning a store or
// unclassified error triggers a retry; other domain errors are final.
type HandlerFunc func(ctx context.Context, payload []byte) error

type handlerSpec struct {
	name  string
	topic string
	fn    HandlerFunc
}

// Processor consumes bus topics with a Watermill router. Each Serve call
// builds a fresh router so a supervisor can restart it after a failure.
type Processor struct {
	cfg      Config
	sub      message.Subscriber
	logger   watermill.LoggerAdapter
	mu       sync.Mutex
	handlers []handlerSpec
	ready    chan struct{}
	once     sync.Once
}

// NewProcessor creates a processor reading from sub.
func NewProcessor(cfg Config, sub message.Subscriber) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: subscriber required", ErrInvalidConfig)
	}
	return &Processor{
		cfg:    cfg,
		sub:    sub,
		logger: watermill.NewSlogLogger(logging.NewComponentSlogLogger("processor")),
		ready:  make(chan struct{}),
	}, nil
}

// AddHandler registers fn for topic. Handlers added after Serve has started
// take effect on the next restart.
func (p *Processor) AddHandler(name, topic string, fn HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, handlerSpec{name: name, topic: topic, fn: fn})
}

// Serve runs the router until ctx is canceled. It implements suture.Service.
func (p *Processor) Serve(ctx context.Context) error {
	router, err := p.newRouter()
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-router.Running():
			p.once.Do(func() { close(p.ready) })
		case <-ctx.Done():
		}
	}()

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("processor router: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.New("processor router stopped")
}

// Running returns a channel closed once the first router is consuming.
func (p *Processor) Running() <-chan struct{} {
	return p.ready
}

func (p *Processor) String() string {
	return "event-processor"
}

func (p *Processor) newRouter() (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: p.cfg.CloseTimeout}, p.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// Outer to inner: dropFailed, Recoverer, Retry.
	router.AddMiddleware(dropFailed)
	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      p.cfg.RetryMaxRetries,
		InitialInterval: p.cfg.RetryInitialInterval,
		MaxInterval:     p.cfg.RetryMaxInterval,
		Multiplier:      p.cfg.RetryMultiplier,
		Logger:          p.logger,
	}
	router.AddMiddleware(retry.Middleware)

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range p.handlers {
		router.AddConsumerHandler(h.name, h.topic, p.sub, wrap(h.fn))
	}
	return router, nil
}

// wrap adapts fn to Watermill. Final domain errors are logged and the
// message is acknowledged without retrying.
func wrap(fn HandlerFunc) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := msg.Context()
		if id := middleware.MessageCorrelationID(msg); id != "" {
			ctx = logging.ContextWithCorrelationID(ctx, id)
		} else {
			ctx = logging.ContextWithNewCorrelationID(ctx)
		}

		err := fn(ctx, msg.Payload)
		if err != nil && isFinal(err) {
			logging.Ctx(ctx).Debug().
				Err(err).
				Str("handler", message.HandlerNameFromCtx(msg.Context())).
				Msg("background effect skipped")
			return nil
		}
		return err
	}
}

// dropFailed acknowledges messages whose retries are exhausted. The
// in-process pub/sub redelivers nacked messages indefinitely.
func dropFailed(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		name := message.HandlerNameFromCtx(msg.Context())
		out, err := h(msg)
		if err != nil {
			metrics.BackgroundEffectFailures.WithLabelValues(name).Inc()
			logging.Error().
				Err(err).
				Str("handler", name).
				Str("message_uuid", msg.UUID).
				Str("correlation_id", middleware.MessageCorrelationID(msg)).
				Msg("background effect failed after retries")
			return nil, nil
		}
		metrics.BackgroundEffectsProcessed.WithLabelValues(name).Inc()
		return out, nil
	}
}

func isFinal(err error) bool {
	return models.IsDomainError(err) && !errors.Is(err, models.ErrStore)
}
