package timeee_client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/timeee/go/internal/models"
	"github.com/rs/zerolog/log"
)

// FetchLeaderboard replaces the local snapshot with the server's ranking, in
// the order received. On failure the previous snapshot is kept.
func (c *TimeeeClient) FetchLeaderboard(ctx context.Context) error {
	body, err := c.Get(ctx, LeaderboardEndpoint)
	if err != nil {
		log.Warn().Err(err).Msg("failed to fetch leaderboard")
		return fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		log.Warn().Err(err).Msg("failed to decode leaderboard")
		return fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}

	c.mu.Lock()
	c.leaderboard = entries
	c.mu.Unlock()

	log.Debug().Int("entries", len(entries)).Msg("leaderboard refreshed")
	return nil
}

// Leaderboard returns a copy of the last fetched snapshot.
func (c *TimeeeClient) Leaderboard() []models.LeaderboardEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]models.LeaderboardEntry, len(c.leaderboard))
	copy(entries, c.leaderboard)
	return entries
}
