package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one completed timing run submitted for persistence.
type Session struct {
	Username   string    `json:"username"`
	DurationMs int64     `json:"durationMs"`
	Laps       []Lap     `json:"laps"`
	Note       string    `json:"note"`
	Date       time.Time `json:"date"`
}

// NewSession builds a session from a timer snapshot. Laps are copied so the
// session does not alias the timer's slice.
func NewSession(username, note string, state TimerState, date time.Time) Session {
	laps := make([]Lap, len(state.Laps))
	copy(laps, state.Laps)

	return Session{
		Username:   username,
		DurationMs: state.ElapsedMs,
		Laps:       laps,
		Note:       note,
		Date:       date.UTC(),
	}
}

// StoredSession is a session as persisted by the server.
type StoredSession struct {
	ID        uuid.UUID `json:"id"`
	Session
	CreatedAt time.Time `json:"createdAt"`
}
