package timeee_client

const (
	// Base URL
	DefaultBaseURL = "http://localhost:8080"

	// API Endpoints
	SessionEndpoint     = "/api/session"
	SessionsEndpoint    = "/api/sessions"
	LeaderboardEndpoint = "/api/leaderboard"

	// Headers
	ContentTypeHeader = "Content-Type"
	ContentTypeJSON   = "application/json"
)
