package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

// ClaimStore is the part of Store the worker needs.
type ClaimStore interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// RelayObserver is told the outcome of every delivery attempt.
type RelayObserver interface {
	ObserveRelay(event string, err error)
}

// Worker polls the store and relays due records until ctx is done.
type Worker struct {
	Store     ClaimStore
	Publisher Publisher
	Interval  time.Duration
	ID        string
	Backoff   []time.Duration
	// BatchSize bounds the records relayed per tick.
	BatchSize int
	Logger    *slog.Logger
	Observer  RelayObserver
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Publisher.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && ctx.Err() == nil {
				w.logger().ErrorContext(ctx, "outbox drain failed", "worker", w.ID, "error", err)
			}
		}
	}
}

// Drain relays due records until none is left or the batch is full. It
// reports how many were handed to the producer successfully.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	sent := 0
	for i := 0; i < w.batchSize(); i++ {
		ok, more, err := w.processOnce(ctx)
		if err != nil {
			return sent, err
		}
		if ok {
			sent++
		}
		if !more {
			break
		}
	}
	return sent, nil
}

func (w *Worker) processOnce(ctx context.Context) (sent, more bool, err error) {
	doc, err := w.Store.Claim(ctx, w.ID)
	if err != nil || doc == nil {
		return false, false, err
	}
	if err := w.Publisher.Relay(ctx, doc.Record()); err != nil {
		w.observe(doc.Name, err)
		w.logger().WarnContext(ctx, "outbox relay failed", "event_id", doc.ID, "event", doc.Name, "attempts", doc.Attempts+1, "error", err)
		if markErr := w.Store.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error()); markErr != nil {
			return false, false, markErr
		}
		return false, true, nil
	}
	w.observe(doc.Name, nil)
	return true, true, w.Store.MarkSent(ctx, doc.ID)
}

func (w *Worker) observe(event string, err error) {
	if w.Observer != nil {
		w.Observer.ObserveRelay(event, err)
	}
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) batchSize() int {
	if w.BatchSize <= 0 {
		return 100
	}
	return w.BatchSize
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
