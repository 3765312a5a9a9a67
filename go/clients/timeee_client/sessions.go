package timeee_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/mcdev12/timeee/go/internal/models"
	"github.com/rs/zerolog/log"
)

// SaveSession validates and submits a finished session. On success the
// leaderboard snapshot is refreshed; a failed refresh is only logged.
func (c *TimeeeClient) SaveSession(ctx context.Context, session models.Session) error {
	if strings.TrimSpace(session.Username) == "" {
		return &ValidationError{Field: "username", Message: "username is required"}
	}

	if !c.saving.CompareAndSwap(false, true) {
		return ErrSaveInProgress
	}
	defer c.saving.Store(false)

	body, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if _, err := c.Post(ctx, SessionEndpoint, bytes.NewReader(body)); err != nil {
		log.Error().
			Err(err).
			Str("username", session.Username).
			Int64("duration_ms", session.DurationMs).
			Msg("failed to save session")
		return &BackendUnavailableError{Err: err}
	}

	log.Info().
		Str("username", session.Username).
		Int64("duration_ms", session.DurationMs).
		Int("laps", len(session.Laps)).
		Msg("session saved")

	_ = c.FetchLeaderboard(ctx)
	return nil
}

// Saving reports whether a save request is currently in flight.
func (c *TimeeeClient) Saving() bool {
	return c.saving.Load()
}

// ListSessions returns the stored sessions of one user, newest first.
func (c *TimeeeClient) ListSessions(ctx context.Context, username string) ([]models.StoredSession, error) {
	endpoint := fmt.Sprintf("%s?username=%s", SessionsEndpoint, url.QueryEscape(username))
	body, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var sessions []models.StoredSession
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}

	return sessions, nil
}
