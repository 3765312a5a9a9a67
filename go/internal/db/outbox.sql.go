package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const insertOutboxEvent = `-- name: InsertOutboxEvent :exec
INSERT INTO outbox (id, aggregate_id, event_type, payload)
VALUES ($1, $2, $3, $4)
`

type InsertOutboxEventParams struct {
	ID          uuid.UUID       `json:"id"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
}

func (q *Queries) InsertOutboxEvent(ctx context.Context, arg InsertOutboxEventParams) error {
	_, err := q.db.ExecContext(ctx, insertOutboxEvent,
		arg.ID,
		arg.AggregateID,
		arg.EventType,
		arg.Payload,
	)
	return err
}

const fetchUnsentOutbox = `-- name: FetchUnsentOutbox :many
SELECT id, aggregate_id, event_type, payload, created_at
FROM outbox
WHERE sent_at IS NULL
ORDER BY created_at
LIMIT $1
FOR UPDATE SKIP LOCKED
`

type FetchUnsentOutboxRow struct {
	ID          uuid.UUID       `json:"id"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (q *Queries) FetchUnsentOutbox(ctx context.Context, limit int32) ([]FetchUnsentOutboxRow, error) {
	rows, err := q.db.QueryContext(ctx, fetchUnsentOutbox, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FetchUnsentOutboxRow
	for rows.Next() {
		var i FetchUnsentOutboxRow
		if err := rows.Scan(
			&i.ID,
			&i.AggregateID,
			&i.EventType,
			&i.Payload,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markOutboxSent = `-- name: MarkOutboxSent :exec
UPDATE outbox SET sent_at = now() WHERE id = ANY($1::uuid[])
`

func (q *Queries) MarkOutboxSent(ctx context.Context, ids []uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, markOutboxSent, pq.Array(ids))
	return err
}

const notifyOutbox = `-- name: NotifyOutbox :exec
SELECT pg_notify($1, $2)
`

type NotifyOutboxParams struct {
	Channel string `json:"channel"`
	Payload string `json:"payload"`
}

func (q *Queries) NotifyOutbox(ctx context.Context, arg NotifyOutboxParams) error {
	_, err := q.db.ExecContext(ctx, notifyOutbox, arg.Channel, arg.Payload)
	return err
}
