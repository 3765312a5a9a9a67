package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mcdev12/timeee/go/internal/models"
	"github.com/rs/zerolog/log"
)

// LeaderboardProvider supplies the current ranking
type LeaderboardProvider interface {
	GetLeaderboard(ctx context.Context, limit int32) ([]models.LeaderboardEntry, error)
}

// WebSocketHandler handles WebSocket upgrade requests for leaderboard subscribers
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	provider          LeaderboardProvider
	limit             int32
	now               func() time.Time
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, provider LeaderboardProvider, limit int32, now func() time.Time) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		provider:          provider,
		limit:             limit,
		now:               now,
	}
}

// HandleLeaderboardConnection upgrades the request and sends the current
// ranking as the first message.
func (h *WebSocketHandler) HandleLeaderboardConnection(w http.ResponseWriter, r *http.Request) {
	entries, err := h.provider.GetLeaderboard(r.Context(), h.limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to load leaderboard snapshot")
		http.Error(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}

	snapshot, err := json.Marshal(newLeaderboardEvent(EventTypeLeaderboardSnapshot, entries, h.now()))
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal leaderboard snapshot")
		http.Error(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}

	// Upgrade has already replied to the client on failure.
	if _, err := h.connectionManager.UpgradeConnection(w, r, snapshot); err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]int{
		"total_connections": h.connectionManager.ConnectionCount(),
	})
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/leaderboard", h.HandleLeaderboardConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
