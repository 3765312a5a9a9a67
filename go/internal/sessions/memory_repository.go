package sessions

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/timeee/go/internal/models"
	"github.com/mcdev12/timeee/go/internal/outbox"
)

// MemoryRepository keeps sessions and their outbox in process memory. It
// implements both SessionsRepository and outbox.Store.
type MemoryRepository struct {
	batchMu  sync.Mutex
	mu       sync.Mutex
	sessions []models.StoredSession
	outbox   []outbox.Event
	sent     map[uuid.UUID]bool
	onStored func()
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sent: make(map[uuid.UUID]bool),
	}
}

// OnEventStored registers a hook run after every stored event, the
// in-memory counterpart of the Postgres NOTIFY.
func (r *MemoryRepository) OnEventStored(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onStored = fn
}

func (r *MemoryRepository) CreateSession(ctx context.Context, session models.StoredSession, event outbox.Event) (*models.StoredSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := session
	stored.Laps = copyLaps(session.Laps)

	r.mu.Lock()
	r.sessions = append(r.sessions, stored)
	r.outbox = append(r.outbox, event)
	hook := r.onStored
	r.mu.Unlock()

	if hook != nil {
		hook()
	}

	out := stored
	out.Laps = copyLaps(stored.Laps)
	return &out, nil
}

func (r *MemoryRepository) ListSessionsByUsername(ctx context.Context, username string, limit int32) ([]models.StoredSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []models.StoredSession
	for i := len(r.sessions) - 1; i >= 0; i-- {
		s := r.sessions[i]
		if s.Username != username {
			continue
		}
		s.Laps = copyLaps(s.Laps)
		result = append(result, s)
	}
	if limit > 0 && len(result) > int(limit) {
		result = result[:limit]
	}
	return result, nil
}

func (r *MemoryRepository) GetLeaderboard(ctx context.Context, limit int32) ([]models.LeaderboardEntry, error) {
	r.mu.Lock()
	totals := make(map[string]int64)
	for _, s := range r.sessions {
		totals[s.Username] += s.DurationMs
	}
	r.mu.Unlock()

	entries := make([]models.LeaderboardEntry, 0, len(totals))
	for username, total := range totals {
		entries = append(entries, models.LeaderboardEntry{Username: username, TotalMs: total})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalMs != entries[j].TotalMs {
			return entries[i].TotalMs > entries[j].TotalMs
		}
		return entries[i].Username < entries[j].Username
	})
	if limit > 0 && len(entries) > int(limit) {
		entries = entries[:limit]
	}
	return entries, nil
}

// ProcessBatch implements outbox.Store. Batches are serialized so an event
// is never handed to publish twice; publish runs without the data lock held
// so it may read the leaderboard.
func (r *MemoryRepository) ProcessBatch(ctx context.Context, limit int32, publish outbox.PublishFunc) (outbox.BatchResult, error) {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()

	r.mu.Lock()
	var pending []outbox.Event
	for _, event := range r.outbox {
		if limit > 0 && len(pending) >= int(limit) {
			break
		}
		if !r.sent[event.ID] {
			pending = append(pending, event)
		}
	}
	r.mu.Unlock()

	result := outbox.BatchResult{Total: len(pending)}
	var published []uuid.UUID
	for _, event := range pending {
		if err := publish(ctx, event); err != nil {
			continue
		}
		published = append(published, event.ID)
	}

	r.mu.Lock()
	for _, id := range published {
		r.sent[id] = true
	}
	r.compactLocked()
	r.mu.Unlock()

	result.Sent = len(published)
	return result, nil
}

// compactLocked drops the sent prefix of the outbox.
func (r *MemoryRepository) compactLocked() {
	n := 0
	for n < len(r.outbox) && r.sent[r.outbox[n].ID] {
		delete(r.sent, r.outbox[n].ID)
		n++
	}
	if n > 0 {
		r.outbox = append([]outbox.Event(nil), r.outbox[n:]...)
	}
}

// copyLaps keeps an empty lap list non-nil so it encodes as [].
func copyLaps(laps []models.Lap) []models.Lap {
	out := make([]models.Lap, len(laps))
	copy(out, laps)
	return out
}
