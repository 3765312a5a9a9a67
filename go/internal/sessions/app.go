package sessions

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timeee/go/internal/events"
	"github.com/mcdev12/timeee/go/internal/models"
	"github.com/mcdev12/timeee/go/internal/outbox"
	"github.com/rs/zerolog/log"
)

// SessionsRepository defines what the app layer needs from the repository
type SessionsRepository interface {
	// CreateSession stores the session and its outbox event atomically.
	CreateSession(ctx context.Context, session models.StoredSession, event outbox.Event) (*models.StoredSession, error)
	ListSessionsByUsername(ctx context.Context, username string, limit int32) ([]models.StoredSession, error)
	GetLeaderboard(ctx context.Context, limit int32) ([]models.LeaderboardEntry, error)
}

// App handles sessions business logic
type App struct {
	repo  SessionsRepository
	clock clockwork.Clock
}

// NewApp creates a new sessions App
func NewApp(repo SessionsRepository, clock clockwork.Clock) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		repo:  repo,
		clock: clock,
	}
}

// CreateSession validates and stores a finished timing run. A missing date
// defaults to the server's current time.
func (a *App) CreateSession(ctx context.Context, req CreateSessionRequest) (*models.StoredSession, error) {
	if err := a.validateCreateSessionRequest(req); err != nil {
		return nil, err
	}

	now := a.clock.Now().UTC()
	date := now
	if req.Date != nil && !req.Date.IsZero() {
		date = req.Date.UTC()
	}

	laps := req.Laps
	if laps == nil {
		laps = []models.Lap{}
	}

	stored := models.StoredSession{
		ID: uuid.New(),
		Session: models.Session{
			Username:   strings.TrimSpace(req.Username),
			DurationMs: req.DurationMs,
			Laps:       laps,
			Note:       req.Note,
			Date:       date,
		},
		CreatedAt: now,
	}

	event, err := outbox.NewEvent(stored.ID, events.EventTypeSessionSaved, events.SessionSavedPayload{
		SessionID:  stored.ID.String(),
		Username:   stored.Username,
		DurationMs: stored.DurationMs,
		LapCount:   len(stored.Laps),
		SavedAt:    now,
	}, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build session event: %w", err)
	}

	session, err := a.repo.CreateSession(ctx, stored, event)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().
		Str("session_id", session.ID.String()).
		Str("username", session.Username).
		Int64("duration_ms", session.DurationMs).
		Int("laps", len(session.Laps)).
		Msg("created session")
	return session, nil
}

// GetLeaderboard returns users ranked by the sum of their session durations.
func (a *App) GetLeaderboard(ctx context.Context, limit int32) ([]models.LeaderboardEntry, error) {
	entries, err := a.repo.GetLeaderboard(ctx, clampLimit(limit, DefaultLeaderboardLimit, MaxLeaderboardLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	return entries, nil
}

// ListSessions returns a user's sessions, newest first.
func (a *App) ListSessions(ctx context.Context, username string, limit int32) ([]models.StoredSession, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidSession)
	}

	sessions, err := a.repo.ListSessionsByUsername(ctx, username, clampLimit(limit, DefaultSessionsLimit, MaxSessionsLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []models.StoredSession{}
	}
	return sessions, nil
}

// validateCreateSessionRequest validates create session request
func (a *App) validateCreateSessionRequest(req CreateSessionRequest) error {
	if strings.TrimSpace(req.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidSession)
	}
	if req.DurationMs < 0 {
		return fmt.Errorf("%w: durationMs cannot be negative", ErrInvalidSession)
	}
	for i, lap := range req.Laps {
		if lap.TimeMs < 0 {
			return fmt.Errorf("%w: lap %d has a negative time", ErrInvalidSession, i+1)
		}
	}
	return nil
}

func clampLimit(limit, def, maxLimit int32) int32 {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
