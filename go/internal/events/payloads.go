package events

import (
	"time"
)

// Event payload types shared between the sessions, outbox and gateway packages

const (
	// EventTypeSessionSaved is emitted once per stored session.
	EventTypeSessionSaved = "SessionSaved"
)

// SessionSavedPayload is the payload for a SessionSaved event
type SessionSavedPayload struct {
	SessionID  string    `json:"session_id"`
	Username   string    `json:"username"`
	DurationMs int64     `json:"duration_ms"`
	LapCount   int       `json:"lap_count"`
	SavedAt    time.Time `json:"saved_at"`
}
