// Package publisher emits activity events to the audit store and any sinks.
//
// In sync mode Emit blocks until the store accepts the event. In async mode
// events are queued on a bounded buffer and written by a background goroutine;
// Close drains the buffer.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "bgv/pkg/domain"
	audit "bgv/pkg/platform/audit"
)

// ErrBufferFull is returned in async mode when the queue is saturated.
var ErrBufferFull = errors.New("audit buffer full")

// Publisher captures structured activity events. It is append-only.
type Publisher struct {
	store  audit.Store
	sinks  []audit.Sink
	logger *slog.Logger

	queue chan audit.Event
	wg    sync.WaitGroup
	once  sync.Once
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables async mode with a queue of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.queue = make(chan audit.Event, n)
		}
	}
}

// WithSink adds a fan-out destination. Sink failures are logged, not returned.
func WithSink(sink audit.Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit records an event, stamping the timestamp and category when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.queue == nil {
		return p.write(ctx, event)
	}

	select {
	case p.queue <- event:
		return nil
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrBufferFull
}

// List returns the events recorded for a Check.
func (p *Publisher) List(ctx context.Context, checkID id.CheckID) ([]audit.Event, error) {
	return p.store.ListByCheck(ctx, checkID)
}

// Close stops the async writer after draining queued events.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.queue != nil {
			close(p.queue)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.queue {
		if err := p.write(context.Background(), event); err != nil {
			p.logger.Error("failed to persist activity event",
				"action", event.Action,
				"check_id", event.CheckID,
				"error", err,
			)
		}
	}
}

func (p *Publisher) write(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range p.sinks {
		if err := sink.Append(ctx, event); err != nil {
			p.logger.WarnContext(ctx, "activity sink rejected event",
				"action", event.Action,
				"check_id", event.CheckID,
				"error", err,
			)
		}
	}
	return nil
}
