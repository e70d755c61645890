package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "bgv/pkg/platform/audit"
	"bgv/pkg/platform/audit/store/postgres"
)

// Outbox is the read side of the PostgreSQL activity outbox.
type Outbox interface {
	FetchPending(ctx context.Context, limit int) ([]postgres.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Worker relays outbox rows to a sink on a fixed interval. A row is marked
// published only after the sink accepted it, so delivery is at-least-once.
type Worker struct {
	outbox   Outbox
	sink     audit.Sink
	interval time.Duration
	batch    int
	logger   *slog.Logger
	relayed  func(n int)
}

type Option func(*Worker)

// WithRelayedHook is called with the size of every non-empty relayed batch.
func WithRelayedHook(fn func(n int)) Option {
	return func(w *Worker) {
		w.relayed = fn
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batch = n
		}
	}
}

func NewWorker(outbox Outbox, sink audit.Sink, interval time.Duration, logger *slog.Logger, opts ...Option) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	w := &Worker{outbox: outbox, sink: sink, interval: interval, batch: 100, logger: logger}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RelayOnce(ctx); err != nil {
				w.logger.WarnContext(ctx, "outbox relay failed", "error", err)
			}
		}
	}
}

// RelayOnce forwards one batch and returns how many rows were published.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	entries, err := w.outbox.FetchPending(ctx, w.batch)
	if err != nil {
		return 0, err
	}

	published := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		event, err := postgres.DecodePayload(entry.Payload)
		if err != nil {
			// Undecodable rows would block the queue forever.
			w.logger.ErrorContext(ctx, "dropping malformed outbox entry", "outbox_id", entry.ID, "error", err)
			published = append(published, entry.ID)
			continue
		}
		if err := w.sink.Append(ctx, event); err != nil {
			break
		}
		published = append(published, entry.ID)
	}

	if err := w.outbox.MarkPublished(ctx, published); err != nil {
		return 0, err
	}
	if w.relayed != nil && len(published) > 0 {
		w.relayed(len(published))
	}
	return len(published), nil
}
