package outbox

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type HealthStatus struct {
	Healthy         bool      `json:"healthy"`
	WorkerRunning   bool      `json:"worker_running"`
	EventsProcessed uint64    `json:"events_processed"`
	LastEventTime   time.Time `json:"last_event_time"`
	// Nil when the dependency is not in use.
	DatabaseConnected *bool    `json:"database_connected,omitempty"`
	NATSConnected     *bool    `json:"nats_connected,omitempty"`
	Errors            []string `json:"errors"`
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthChecker reports on the worker and the connections it depends on.
type HealthChecker struct {
	worker        *Worker
	db            Pinger
	natsConnected func() bool
}

// NewHealthChecker builds a checker; db and natsConnected may be nil.
func NewHealthChecker(worker *Worker, db Pinger, natsConnected func() bool) *HealthChecker {
	return &HealthChecker{
		worker:        worker,
		db:            db,
		natsConnected: natsConnected,
	}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Errors:  []string{},
	}

	status.EventsProcessed, status.LastEventTime = h.worker.Stats()

	status.WorkerRunning = h.worker.Running()
	if !status.WorkerRunning {
		status.Healthy = false
		status.Errors = append(status.Errors, "outbox worker not running")
	}

	if h.db != nil {
		connected := true
		if err := h.db.PingContext(ctx); err != nil {
			connected = false
			status.Healthy = false
			status.Errors = append(status.Errors, "database ping failed: "+err.Error())
		}
		status.DatabaseConnected = &connected
	}

	if h.natsConnected != nil {
		connected := h.natsConnected()
		if !connected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
		status.NATSConnected = &connected
	}

	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write outbox health response")
	}
}
