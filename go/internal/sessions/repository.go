package sessions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mcdev12/timeee/go/internal/db"
	"github.com/mcdev12/timeee/go/internal/models"
	"github.com/mcdev12/timeee/go/internal/outbox"
	"github.com/mcdev12/timeee/go/internal/sqlutil"
)

// Repository implements session data access on Postgres
type Repository struct {
	db      *sql.DB
	queries *db.Queries
}

// NewRepository creates a new sessions repository
func NewRepository(database *sql.DB) *Repository {
	return &Repository{
		db:      database,
		queries: db.New(database),
	}
}

// CreateSession inserts the session and its outbox event in one transaction
// and notifies outbox listeners on commit.
func (r *Repository) CreateSession(ctx context.Context, session models.StoredSession, event outbox.Event) (*models.StoredSession, error) {
	laps, err := sqlutil.ToNullRawMessage(session.Laps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode laps: %w", err)
	}

	var created db.Session
	err = sqlutil.Run(ctx, r.db, func(tx *sql.Tx) *db.Queries { return r.queries.WithTx(tx) }, func(q *db.Queries) error {
		row, err := q.CreateSession(ctx, db.CreateSessionParams{
			ID:          session.ID,
			Username:    session.Username,
			DurationMs:  session.DurationMs,
			Laps:        laps,
			Note:        session.Note,
			SessionDate: session.Date,
		})
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		created = row

		if err := q.InsertOutboxEvent(ctx, db.InsertOutboxEventParams{
			ID:          event.ID,
			AggregateID: event.AggregateID,
			EventType:   event.EventType,
			Payload:     event.Payload,
		}); err != nil {
			return fmt.Errorf("failed to insert %s outbox event: %w", event.EventType, err)
		}

		// Delivered by Postgres only when the transaction commits.
		if err := q.NotifyOutbox(ctx, db.NotifyOutboxParams{
			Channel: outbox.NotifyChannel,
			Payload: event.ID.String(),
		}); err != nil {
			return fmt.Errorf("failed to notify outbox: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.dbSessionToModel(created)
}

// ListSessionsByUsername retrieves a user's sessions, newest first
func (r *Repository) ListSessionsByUsername(ctx context.Context, username string, limit int32) ([]models.StoredSession, error) {
	rows, err := r.queries.ListSessionsByUsername(ctx, db.ListSessionsByUsernameParams{
		Username: username,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]models.StoredSession, 0, len(rows))
	for _, row := range rows {
		session, err := r.dbSessionToModel(row)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, nil
}

// GetLeaderboard aggregates total duration per username
func (r *Repository) GetLeaderboard(ctx context.Context, limit int32) ([]models.LeaderboardEntry, error) {
	rows, err := r.queries.GetLeaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	entries := make([]models.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = models.LeaderboardEntry{
			Username: row.Username,
			TotalMs:  row.TotalMs,
		}
	}
	return entries, nil
}

// dbSessionToModel converts a database session to domain model
func (r *Repository) dbSessionToModel(row db.Session) (*models.StoredSession, error) {
	laps := []models.Lap{}
	if err := sqlutil.FromNullRawMessage(row.Laps, &laps); err != nil {
		return nil, fmt.Errorf("failed to decode laps for session %s: %w", row.ID, err)
	}

	return &models.StoredSession{
		ID: row.ID,
		Session: models.Session{
			Username:   row.Username,
			DurationMs: row.DurationMs,
			Laps:       laps,
			Note:       row.Note,
			Date:       row.SessionDate.UTC(),
		},
		CreatedAt: row.CreatedAt.UTC(),
	}, nil
}
