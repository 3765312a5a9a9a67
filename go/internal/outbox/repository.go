package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/timeee/go/internal/db"
	"github.com/mcdev12/timeee/go/internal/sqlutil"
	"github.com/rs/zerolog/log"
)

// Repository is the Postgres outbox store. Rows are claimed with
// FOR UPDATE SKIP LOCKED so several workers can drain the table.
type Repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) *Repository {
	return &Repository{
		db: database,
	}
}

func (r *Repository) ProcessBatch(ctx context.Context, limit int32, publish PublishFunc) (BatchResult, error) {
	var result BatchResult

	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) *db.Queries { return db.New(tx) }, func(q *db.Queries) error {
		rows, err := q.FetchUnsentOutbox(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to fetch unsent outbox events: %w", err)
		}
		result.Total = len(rows)

		var sent []uuid.UUID
		for _, row := range rows {
			event := Event{
				ID:          row.ID,
				AggregateID: row.AggregateID,
				EventType:   row.EventType,
				Payload:     row.Payload,
				CreatedAt:   row.CreatedAt,
			}
			if err := publish(ctx, event); err != nil {
				log.Error().
					Err(err).
					Str("event_id", row.ID.String()).
					Str("event_type", row.EventType).
					Msg("failed to publish event")
				continue
			}
			sent = append(sent, row.ID)
		}

		if len(sent) > 0 {
			if err := q.MarkOutboxSent(ctx, sent); err != nil {
				return fmt.Errorf("failed to mark outbox events as sent: %w", err)
			}
		}
		result.Sent = len(sent)
		return nil
	})
	if err != nil {
		return BatchResult{}, err
	}

	return result, nil
}
