package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/aussiebroadwan/tenancy/internal/identity/store"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

type outboxRepo struct {
	q *queries
}

func (r *outboxRepo) Enqueue(ctx context.Context, msgs ...store.OutboxMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	rows := make([]any, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, outboxRow{
			ID:          m.ID,
			EventName:   m.EventName,
			AggregateID: m.AggregateID,
			Payload:     string(m.Payload),
			OccurredAt:  m.OccurredAt,
			Attempts:    m.Attempts,
			LastError:   m.LastError,
			PublishedAt: mapOptionalTime(m.PublishedAt),
		})
	}

	if _, err := r.q.insert(outboxTable).Rows(rows...).Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("could not enqueue outbox messages: %w", mapWriteErr(err))
	}
	return nil
}

func (r *outboxRepo) ListPending(ctx context.Context, limit int) ([]store.OutboxMessage, error) {
	var rows []outboxRow
	err := r.q.from(outboxTable).
		Where(goqu.I("published_at").IsNull()).
		Order(goqu.I("occurred_at").Asc(), goqu.I("id").Asc()).
		Limit(uint(max(limit, 1))).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("could not list pending outbox messages: %w", err)
	}

	out := make([]store.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.OutboxMessage{
			ID:          row.ID,
			EventName:   row.EventName,
			AggregateID: row.AggregateID,
			Payload:     []byte(row.Payload),
			OccurredAt:  row.OccurredAt.UTC(),
			Attempts:    row.Attempts,
			LastError:   row.LastError,
			PublishedAt: mapNullTimePtr(row.PublishedAt),
		})
	}
	return out, nil
}

func (r *outboxRepo) CountPending(ctx context.Context) (int, error) {
	n, err := r.q.from(outboxTable).
		Where(goqu.I("published_at").IsNull()).
		CountContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not count pending outbox messages: %w", err)
	}
	return int(n), nil
}

func (r *outboxRepo) MarkPublished(ctx context.Context, id idx.ID, at time.Time) error {
	return requireAffected(r.q.update(outboxTable).
		Set(goqu.Record{"published_at": at, "last_error": ""}).
		Where(goqu.I("id").Eq(id)).
		Executor().ExecContext(ctx))
}

func (r *outboxRepo) MarkFailed(ctx context.Context, id idx.ID, reason string) error {
	return requireAffected(r.q.update(outboxTable).
		Set(goqu.Record{
			"attempts":   goqu.L("attempts + 1"),
			"last_error": reason,
		}).
		Where(goqu.I("id").Eq(id)).
		Executor().ExecContext(ctx))
}

func (r *outboxRepo) DeletePublishedBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.q.delete(outboxTable).
		Where(goqu.I("published_at").IsNotNull(), goqu.I("published_at").Lt(t)).
		Executor().ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not purge outbox: %w", err)
	}
	return res.RowsAffected()
}
