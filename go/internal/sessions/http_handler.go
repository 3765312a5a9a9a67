package sessions

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

// maxSessionBodyBytes bounds a create request; laps dominate the size.
const maxSessionBodyBytes = 1 << 20

// HTTPHandler serves the REST contract used by the stopwatch client
type HTTPHandler struct {
	app SessionsApp
}

// NewHTTPHandler creates a new REST handler
func NewHTTPHandler(app SessionsApp) *HTTPHandler {
	return &HTTPHandler{
		app: app,
	}
}

// RegisterRoutes registers the session routes with an HTTP mux
func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/session", h.HandleCreateSession)
	mux.HandleFunc("GET /api/leaderboard", h.HandleGetLeaderboard)
	mux.HandleFunc("GET /api/sessions", h.HandleListSessions)
}

// HandleCreateSession stores the posted session
func (h *HTTPHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSessionBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var req CreateSessionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	session, err := h.app.CreateSession(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidSession) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("failed to create session")
		writeError(w, http.StatusInternalServerError, "failed to store session")
		return
	}

	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		ID:        session.ID,
		CreatedAt: session.CreatedAt,
	})
}

// HandleGetLeaderboard returns the ranking as a bare JSON array
func (h *HTTPHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	entries, err := h.app.GetLeaderboard(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to get leaderboard")
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// HandleListSessions returns one user's sessions
func (h *HTTPHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	sessions, err := h.app.ListSessions(r.Context(), r.URL.Query().Get("username"), limit)
	if err != nil {
		if errors.Is(err, ErrInvalidSession) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("failed to list sessions")
		writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

func parseLimit(r *http.Request) (int32, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || limit < 0 {
		return 0, errors.New("invalid limit")
	}
	return int32(limit), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
