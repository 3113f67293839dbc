// Package publisher emits audit events to a Store, either synchronously or
// through a bounded async buffer. Audit emission must never block or fail a
// payment, so the async path drops on overflow rather than applying
// backpressure.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "securelife/pkg/domain"
	audit "securelife/pkg/platform/audit"
)

// ErrBufferFull is returned when the async buffer cannot accept more events.
var ErrBufferFull = errors.New("audit buffer full")

// Publisher writes audit events to a Store.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox     chan audit.Event
	closeOnce sync.Once
	done      chan struct{}
}

// Option configures the publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission through a buffer of the given
// size. Events are dropped (and counted via the logger) when the buffer is full.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan audit.Event, size)
		}
	}
}

// WithLogger overrides the logger used for drop/persist failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher constructs a publisher. Without options it writes through to
// the store synchronously.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		go p.drain()
	}
	return p
}

// Emit records an event. A zero timestamp is stamped with the current time.
// In async mode a full buffer returns ErrBufferFull instead of blocking.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.inbox <- event:
		return nil
	default:
		p.logger.WarnContext(ctx, "audit event dropped",
			slog.String("action", event.Action))
		return ErrBufferFull
	}
}

// List returns the events recorded for a user, when the store supports reads.
func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	reader, ok := p.store.(audit.Reader)
	if !ok {
		return nil, errors.New("audit store does not support reads")
	}
	return reader.ListByUser(ctx, userID)
}

// Close stops the async worker after draining buffered events. Safe to call
// multiple times and in sync mode.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox == nil {
			close(p.done)
			return
		}
		close(p.inbox)
		<-p.done
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Warn("audit event persist failed",
				slog.String("action", event.Action),
				slog.String("error", err.Error()))
		}
	}
}
