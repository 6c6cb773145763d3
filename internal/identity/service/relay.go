package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/aussiebroadwan/tenancy/internal/identity/broker"
	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/internal/identity/metrics"
	"github.com/aussiebroadwan/tenancy/internal/identity/store"
	"github.com/aussiebroadwan/tenancy/pkg/slogx"
)

const (
	DefaultRelayInterval  = 2 * time.Second
	DefaultRelayBatchSize = 100
)

// OutboxRelay moves integration events from the outbox to a broker. Delivery
// is at least once: a message is marked published only after Publish
// returns.
type OutboxRelay struct {
	Store     store.Store
	Publisher broker.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Interval  time.Duration
	BatchSize int
	Clock     domain.Clock

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewOutboxRelay creates a relay. Non-positive interval or batch size select
// the defaults.
func NewOutboxRelay(st store.Store, pub broker.Publisher, m *metrics.Metrics, logger *slog.Logger, interval time.Duration, batchSize int) *OutboxRelay {
	if interval <= 0 {
		interval = DefaultRelayInterval
	}
	if batchSize <= 0 {
		batchSize = DefaultRelayBatchSize
	}
	return &OutboxRelay{
		Store:     st,
		Publisher: pub,
		Metrics:   m,
		Logger:    logger,
		Interval:  interval,
		BatchSize: batchSize,
		Clock:     domain.SystemClock,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the relay loop. Call Stop to shut it down.
func (r *OutboxRelay) Start() {
	go r.run()
	r.Logger.Info("outbox relay started", "interval", r.Interval, "batch_size", r.BatchSize)
}

// Stop waits for the in-flight batch to finish.
func (r *OutboxRelay) Stop() {
	close(r.stopCh)
	<-r.doneCh
	r.Logger.Info("outbox relay stopped")
}

func (r *OutboxRelay) run() {
	defer close(r.doneCh)

	ctx, cancel := context.WithCancel(slogx.WithContext(context.Background(), r.Logger))
	defer cancel()
	go func() {
		select {
		case <-r.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		// Drain fully delivered batches back to back; wait for the ticker otherwise.
		for {
			n, err := r.RelayOnce(ctx)
			if err != nil {
				r.Logger.Error("outbox relay batch failed", slogx.Err(err))
				break
			}
			if n < r.BatchSize {
				break
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// RelayOnce publishes one batch of pending messages and returns how many
// were delivered. A failed publish is recorded on the message and does not stop
// the batch.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	log := slogx.FromContext(ctx)

	msgs, err := r.Store.Outbox().ListPending(ctx, r.BatchSize)
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, msg := range msgs {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		if err := r.Publisher.Publish(ctx, toBrokerMessage(msg)); err != nil {
			failed++
			r.Metrics.OutboxFailed(msg.EventName)
			log.Warn("failed to publish integration event",
				slog.String("event_id", msg.ID.String()),
				slog.String("event_name", msg.EventName),
				slog.Int("attempts", msg.Attempts+1),
				slogx.Err(err),
			)
			if err := r.Store.Outbox().MarkFailed(ctx, msg.ID, err.Error()); err != nil {
				return 0, err
			}
			continue
		}

		if err := r.Store.Outbox().MarkPublished(ctx, msg.ID, r.Clock()); err != nil {
			return 0, err
		}
		r.Metrics.OutboxPublished(msg.EventName)
	}

	backlog, err := r.Store.Outbox().CountPending(ctx)
	if err != nil {
		return len(msgs) - failed, err
	}
	r.Metrics.OutboxPending(backlog)
	return len(msgs) - failed, nil
}

func toBrokerMessage(msg store.OutboxMessage) broker.Message {
	return broker.Message{
		ID:          msg.ID.String(),
		Name:        msg.EventName,
		AggregateID: msg.AggregateID.String(),
		OccurredAt:  msg.OccurredAt,
		Payload:     msg.Payload,
		Attributes: map[string]string{
			"attempt": strconv.Itoa(msg.Attempts + 1),
		},
	}
}
