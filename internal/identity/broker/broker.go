// Package broker carries integration events out of the process.
package broker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tenancy/pkg/slogx"
)

// Message is one integration event as it leaves the outbox.
type Message struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	AggregateID string            `json:"aggregate_id"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Payload     []byte            `json:"-"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Publisher delivers messages to subscribers outside the process. Publish
// must be safe to retry; consumers de-duplicate on Message.ID.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// LogPublisher writes each message to the request logger. It is the
// fallback when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, msg Message) error {
	slogx.FromContext(ctx).Info("integration event",
		slog.String("event_id", msg.ID),
		slog.String("event_name", msg.Name),
		slog.String("aggregate_id", msg.AggregateID),
		slog.Time("occurred_at", msg.OccurredAt),
		slog.String("payload", string(msg.Payload)),
	)
	return nil
}

func (LogPublisher) Close() error { return nil }
