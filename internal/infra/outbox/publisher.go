package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	appoutbox "estatehub/internal/app/outbox"
)

const defaultSource = "app://estatehub"

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Publisher turns outbox records into CloudEvents and hands them to a
// Producer. Records are keyed by aggregate so one reservation's events
// stay ordered within a partition.
type Publisher struct {
	Producer    Producer
	TopicPrefix string
	Source      string
}

// Relay publishes one record.
func (p Publisher) Relay(ctx context.Context, rec appoutbox.EventRecord) error {
	if p.Producer == nil {
		return ErrWorkerNotConfigured
	}
	payload, headers, err := p.Envelope(rec)
	if err != nil {
		return err
	}
	return p.Producer.Publish(ctx, p.TopicFor(rec.Name), rec.Aggregate, payload, headers)
}

// TopicFor maps "reservation.cancelled" to "<prefix>reservation.events.v1".
func (p Publisher) TopicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return p.TopicPrefix + base + ".events.v1"
}

type cloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	TraceParent     string          `json:"traceparent,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// Envelope wraps rec as a structured-mode CloudEvent. The event id is the
// outbox record id so consumers can drop redeliveries.
func (p Publisher) Envelope(rec appoutbox.EventRecord) ([]byte, map[string]string, error) {
	if !json.Valid(rec.Payload) {
		return nil, nil, errors.Newf("outbox: record %s has a non-JSON payload", rec.ID)
	}
	source := p.Source
	if source == "" {
		source = defaultSource
	}
	evt := cloudEvent{
		SpecVersion:     "1.0",
		ID:              rec.ID,
		Type:            rec.Name + ".v1",
		Source:          source,
		Subject:         rec.Aggregate,
		Time:            rec.OccurredAt,
		DataContentType: "application/json",
		TraceParent:     rec.Headers["traceparent"],
		Data:            rec.Payload,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, errors.Wrap(err, "outbox: encode cloudevent")
	}
	headers := map[string]string{"content-type": "application/cloudevents+json"}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// LogProducer stands in for Kafka when no brokers are configured.
type LogProducer struct {
	Logger *slog.Logger
}

func (l LogProducer) Publish(ctx context.Context, topic string, key string, payload []byte, _ map[string]string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "event published", "topic", topic, "key", key, "bytes", len(payload))
	return nil
}
