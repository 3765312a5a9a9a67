package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type Session struct {
	ID          uuid.UUID             `json:"id"`
	Username    string                `json:"username"`
	DurationMs  int64                 `json:"duration_ms"`
	Laps        pqtype.NullRawMessage `json:"laps"`
	Note        string                `json:"note"`
	SessionDate time.Time             `json:"session_date"`
	CreatedAt   time.Time             `json:"created_at"`
}

type Outbox struct {
	ID          uuid.UUID       `json:"id"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	SentAt      sql.NullTime    `json:"sent_at"`
}
