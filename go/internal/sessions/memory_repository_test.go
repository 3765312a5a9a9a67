package sessions

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/timeee/go/internal/models"
	"github.com/mcdev12/timeee/go/internal/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeTestSession(t *testing.T, repo *MemoryRepository, username string) outbox.Event {
	t.Helper()
	id := uuid.New()
	event := outbox.Event{ID: uuid.New(), AggregateID: id, EventType: "SessionSaved", Payload: []byte(`{}`)}
	_, err := repo.CreateSession(context.Background(), models.StoredSession{
		ID:      id,
		Session: models.Session{Username: username, DurationMs: 10, Laps: []models.Lap{{Label: "Lap 1", TimeMs: 5}}},
	}, event)
	require.NoError(t, err)
	return event
}

func TestMemoryRepository_OnEventStored(t *testing.T) {
	repo := NewMemoryRepository()
	calls := 0
	repo.OnEventStored(func() { calls++ })

	storeTestSession(t, repo, "ana")
	storeTestSession(t, repo, "bo")

	assert.Equal(t, 2, calls)
}

func TestMemoryRepository_ProcessBatchMarksOnlyPublished(t *testing.T) {
	repo := NewMemoryRepository()
	first := storeTestSession(t, repo, "ana")
	storeTestSession(t, repo, "bo")

	result, err := repo.ProcessBatch(context.Background(), 10, func(ctx context.Context, e outbox.Event) error {
		if e.ID == first.ID {
			return errors.New("bus down")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, outbox.BatchResult{Total: 2, Sent: 1}, result)

	var retried []uuid.UUID
	_, err = repo.ProcessBatch(context.Background(), 10, func(ctx context.Context, e outbox.Event) error {
		retried = append(retried, e.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID}, retried, "only the failed event is retried")

	result, err = repo.ProcessBatch(context.Background(), 10, func(ctx context.Context, e outbox.Event) error { return nil })
	require.NoError(t, err)
	assert.Zero(t, result.Total, "drained outbox still has events")
}

func TestMemoryRepository_ProcessBatchHonorsLimit(t *testing.T) {
	repo := NewMemoryRepository()
	storeTestSession(t, repo, "ana")
	storeTestSession(t, repo, "bo")
	storeTestSession(t, repo, "cy")

	result, err := repo.ProcessBatch(context.Background(), 2, func(ctx context.Context, e outbox.Event) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestMemoryRepository_PublishMayReadLeaderboard(t *testing.T) {
	repo := NewMemoryRepository()
	storeTestSession(t, repo, "ana")

	_, err := repo.ProcessBatch(context.Background(), 10, func(ctx context.Context, e outbox.Event) error {
		_, err := repo.GetLeaderboard(ctx, 10)
		return err
	})
	require.NoError(t, err)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	storeTestSession(t, repo, "ana")

	sessions, err := repo.ListSessionsByUsername(context.Background(), "ana", 10)
	require.NoError(t, err)
	sessions[0].Laps[0].Label = "mutated"

	again, err := repo.ListSessionsByUsername(context.Background(), "ana", 10)
	require.NoError(t, err)
	assert.Equal(t, "Lap 1", again[0].Laps[0].Label, "stored lap changed through returned slice")
}

func TestMemoryRepository_EmptyLapsStayEmpty(t *testing.T) {
	repo := NewMemoryRepository()
	id := uuid.New()
	event := outbox.Event{ID: uuid.New(), AggregateID: id, EventType: "SessionSaved", Payload: []byte(`{}`)}

	created, err := repo.CreateSession(context.Background(), models.StoredSession{
		ID:      id,
		Session: models.Session{Username: "ana", DurationMs: 5, Laps: []models.Lap{}},
	}, event)
	require.NoError(t, err)
	assert.NotNil(t, created.Laps)
	assert.Empty(t, created.Laps)

	sessions, err := repo.ListSessionsByUsername(context.Background(), "ana", 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.NotNil(t, sessions[0].Laps)
	assert.Empty(t, sessions[0].Laps)
}
