package gateway

import (
	"time"

	"github.com/mcdev12/timeee/go/internal/models"
)

// EventType represents the type of message pushed to websocket clients
type EventType string

const (
	// EventTypeLeaderboardSnapshot is sent once, right after a client connects.
	EventTypeLeaderboardSnapshot EventType = "LeaderboardSnapshot"
	// EventTypeLeaderboardUpdated is broadcast whenever a stored session
	// changes the ranking.
	EventTypeLeaderboardUpdated EventType = "LeaderboardUpdated"
)

// LeaderboardEvent is the message format written to websocket clients
type LeaderboardEvent struct {
	Type      EventType                 `json:"type"`
	Timestamp time.Time                 `json:"timestamp"`
	Data      []models.LeaderboardEntry `json:"data"`
}

func newLeaderboardEvent(eventType EventType, entries []models.LeaderboardEntry, now time.Time) *LeaderboardEvent {
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	return &LeaderboardEvent{
		Type:      eventType,
		Timestamp: now.UTC(),
		Data:      entries,
	}
}
