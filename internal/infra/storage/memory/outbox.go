package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "estatehub/internal/app/outbox"
)

// Relay delivers one record, typically to Kafka.
type Relay interface {
	Relay(ctx context.Context, rec appoutbox.EventRecord) error
}

// Outbox holds committed records and hands them to Relay on Flush. Without
// a relay, flushed records are only kept in the sent log.
type Outbox struct {
	Relay Relay

	mu      sync.Mutex
	pending []appoutbox.EventRecord
	sent    []appoutbox.EventRecord
}

func NewOutbox(relay Relay) *Outbox {
	return &Outbox{Relay: relay}
}

func (o *Outbox) enqueue(recs ...appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, recs...)
}

// Add enqueues rec directly, outside any unit of work.
func (o *Outbox) Add(_ context.Context, rec appoutbox.EventRecord) error {
	o.enqueue(rec)
	return nil
}

// Flush relays every pending record. Records that fail stay pending for
// the next flush.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	batch := o.pending
	o.pending = nil
	o.mu.Unlock()

	var (
		sent   []appoutbox.EventRecord
		failed []appoutbox.EventRecord
		errs   []error
	)
	for _, rec := range batch {
		if o.Relay != nil {
			if err := o.Relay.Relay(ctx, rec); err != nil {
				failed = append(failed, rec)
				errs = append(errs, err)
				continue
			}
		}
		sent = append(sent, rec)
	}

	o.mu.Lock()
	o.sent = append(o.sent, sent...)
	o.pending = append(failed, o.pending...)
	o.mu.Unlock()
	return errors.Join(errs...)
}

func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.pending...)
}

func (o *Outbox) Sent() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.sent...)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
