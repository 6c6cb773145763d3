package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/internal/identity/metrics"
	"github.com/aussiebroadwan/tenancy/internal/identity/store"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
	"github.com/aussiebroadwan/tenancy/pkg/slogx"
)

// Track registers entities whose events must be dispatched before the
// surrounding transaction commits.
type Track func(sources ...domain.EventSource)

// EventHandler reacts to a domain event inside the transaction that raised
// it. Entities it changes are registered through track so their own events
// are dispatched in the same pass. Returning an error rolls the transaction
// back.
type EventHandler func(ctx context.Context, tx store.Tx, track Track, ev domain.DomainEvent) error

// EventDispatcher delivers domain events to in-process handlers and writes
// integration events to the outbox. A nil dispatcher has no handlers but
// still fills the outbox.
type EventDispatcher struct {
	Metrics *metrics.Metrics

	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

func NewEventDispatcher(m *metrics.Metrics) *EventDispatcher {
	return &EventDispatcher{
		Metrics:  m,
		handlers: make(map[string][]EventHandler),
	}
}

// Subscribe registers h for events named name. Handlers run in registration
// order.
func (d *EventDispatcher) Subscribe(name string, h EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

func (d *EventDispatcher) handlersFor(name string) []EventHandler {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers[name]
}

func (d *EventDispatcher) metrics() *metrics.Metrics {
	if d == nil {
		return nil
	}
	return d.Metrics
}

// Transact runs fn in a transaction on st. Events of every tracked entity
// are dispatched after fn returns and before commit; the entities' buffers
// are cleared only once the commit has succeeded.
func (d *EventDispatcher) Transact(ctx context.Context, st store.Store, fn func(tx store.Tx, track Track) error) error {
	b := &batch{seen: make(map[domain.EventSource]struct{})}

	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := fn(tx, b.track); err != nil {
			return err
		}
		return d.dispatch(ctx, tx, b)
	})
	if err != nil {
		return err
	}

	for _, src := range b.sources {
		src.ClearEvents()
	}
	return nil
}

type batch struct {
	sources []domain.EventSource
	seen    map[domain.EventSource]struct{}
}

func (b *batch) track(sources ...domain.EventSource) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		if _, ok := b.seen[src]; ok {
			continue
		}
		b.seen[src] = struct{}{}
		b.sources = append(b.sources, src)
	}
}

// dispatch walks the tracked entities in order. Handlers may track more
// entities; the loop picks them up because it re-reads the slice length.
func (d *EventDispatcher) dispatch(ctx context.Context, tx store.Tx, b *batch) error {
	log := slogx.FromContext(ctx)
	m := d.metrics()

	var outbox []store.OutboxMessage
	for i := 0; i < len(b.sources); i++ {
		for _, ev := range b.sources[i].Events() {
			if de, ok := ev.(domain.DomainEvent); ok {
				for _, h := range d.handlersFor(ev.EventName()) {
					if err := h(ctx, tx, b.track, de); err != nil {
						log.Error("domain event handler failed",
							slog.String("event_name", ev.EventName()),
							slog.String("event_id", ev.EventID().String()),
							slogx.Err(err),
						)
						return fmt.Errorf("handle %s: %w", ev.EventName(), err)
					}
				}
				m.DomainEventDispatched(ev.EventName())
			}

			if ie, ok := ev.(domain.IntegrationEvent); ok {
				msg, err := toOutboxMessage(ie)
				if err != nil {
					return err
				}
				outbox = append(outbox, msg)
			}
		}
	}

	if len(outbox) == 0 {
		return nil
	}
	if err := tx.Outbox().Enqueue(ctx, outbox...); err != nil {
		log.Error("failed to enqueue integration events", slogx.Err(err))
		return err
	}
	for _, msg := range outbox {
		m.OutboxEnqueued(msg.EventName)
	}
	return nil
}

func toOutboxMessage(ev domain.IntegrationEvent) (store.OutboxMessage, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return store.OutboxMessage{}, fmt.Errorf("encode %s: %w", ev.EventName(), err)
	}
	return store.OutboxMessage{
		ID:          ev.EventID(),
		EventName:   ev.EventName(),
		AggregateID: aggregateID(ev),
		Payload:     payload,
		OccurredAt:  ev.OccurredOn(),
	}, nil
}

// aggregateID is the workspace every integration event is partitioned by.
func aggregateID(ev domain.Event) idx.ID {
	switch e := ev.(type) {
	case domain.WorkspaceCreated:
		return e.WorkspaceID
	case domain.WorkspaceDeactivated:
		return e.WorkspaceID
	case domain.MemberAdded:
		return e.WorkspaceID
	case domain.MemberRoleChanged:
		return e.WorkspaceID
	case domain.MemberDeactivated:
		return e.WorkspaceID
	case domain.InvitationCreated:
		return e.WorkspaceID
	case domain.InvitationAccepted:
		return e.WorkspaceID
	case domain.InvitationRejected:
		return e.WorkspaceID
	case domain.InvitationExpired:
		return e.WorkspaceID
	default:
		return idx.Zero
	}
}
