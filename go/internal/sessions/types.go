package sessions

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/timeee/go/internal/models"
)

// ErrInvalidSession wraps every validation failure of a create request.
var ErrInvalidSession = errors.New("invalid session")

const (
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 500
	DefaultSessionsLimit    = 20
	MaxSessionsLimit        = 200
)

// CreateSessionRequest represents the data needed to store a session
type CreateSessionRequest struct {
	Username   string       `json:"username"`
	DurationMs int64        `json:"durationMs"`
	Laps       []models.Lap `json:"laps"`
	Note       string       `json:"note"`
	Date       *time.Time   `json:"date,omitempty"`
}

// CreateSessionResponse is returned once a session is stored
type CreateSessionResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetLeaderboardRequest limits the number of ranked users returned
type GetLeaderboardRequest struct {
	Limit int32 `json:"limit"`
}

// GetLeaderboardResponse wraps the ranking for the RPC surface
type GetLeaderboardResponse struct {
	Entries []models.LeaderboardEntry `json:"entries"`
}
