package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const createSession = `-- name: CreateSession :one
INSERT INTO sessions (id, username, duration_ms, laps, note, session_date)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, username, duration_ms, laps, note, session_date, created_at
`

type CreateSessionParams struct {
	ID          uuid.UUID             `json:"id"`
	Username    string                `json:"username"`
	DurationMs  int64                 `json:"duration_ms"`
	Laps        pqtype.NullRawMessage `json:"laps"`
	Note        string                `json:"note"`
	SessionDate time.Time             `json:"session_date"`
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := q.db.QueryRowContext(ctx, createSession,
		arg.ID,
		arg.Username,
		arg.DurationMs,
		arg.Laps,
		arg.Note,
		arg.SessionDate,
	)
	var i Session
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.DurationMs,
		&i.Laps,
		&i.Note,
		&i.SessionDate,
		&i.CreatedAt,
	)
	return i, err
}

const listSessionsByUsername = `-- name: ListSessionsByUsername :many
SELECT id, username, duration_ms, laps, note, session_date, created_at
FROM sessions
WHERE username = $1
ORDER BY created_at DESC
LIMIT $2
`

type ListSessionsByUsernameParams struct {
	Username string `json:"username"`
	Limit    int32  `json:"limit"`
}

func (q *Queries) ListSessionsByUsername(ctx context.Context, arg ListSessionsByUsernameParams) ([]Session, error) {
	rows, err := q.db.QueryContext(ctx, listSessionsByUsername, arg.Username, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Session
	for rows.Next() {
		var i Session
		if err := rows.Scan(
			&i.ID,
			&i.Username,
			&i.DurationMs,
			&i.Laps,
			&i.Note,
			&i.SessionDate,
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

const getLeaderboard = `-- name: GetLeaderboard :many
SELECT username, SUM(duration_ms)::BIGINT AS total_ms
FROM sessions
GROUP BY username
ORDER BY total_ms DESC, username ASC
LIMIT $1
`

type GetLeaderboardRow struct {
	Username string `json:"username"`
	TotalMs  int64  `json:"total_ms"`
}

func (q *Queries) GetLeaderboard(ctx context.Context, limit int32) ([]GetLeaderboardRow, error) {
	rows, err := q.db.QueryContext(ctx, getLeaderboard, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetLeaderboardRow
	for rows.Next() {
		var i GetLeaderboardRow
		if err := rows.Scan(&i.Username, &i.TotalMs); err != nil {
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
