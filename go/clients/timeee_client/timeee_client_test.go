package timeee_client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mcdev12/timeee/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records requests and serves canned leaderboard responses.
type fakeAPI struct {
	mu              sync.Mutex
	posts           []models.Session
	leaderboardGets int
	leaderboard     string
	failLeaderboard bool
	postStatus      int
	postGate        chan struct{}
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(SessionEndpoint, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var s models.Session
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.posts = append(f.posts, s)
		status := f.postStatus
		gate := f.postGate
		f.mu.Unlock()

		if gate != nil {
			<-gate
		}
		if status == 0 {
			status = http.StatusCreated
		}
		w.WriteHeader(status)
		w.Write([]byte(`{"id":"00000000-0000-0000-0000-000000000001"}`))
	})
	mux.HandleFunc(LeaderboardEndpoint, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.leaderboardGets++
		fail := f.failLeaderboard
		body := f.leaderboard
		f.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})
	return mux
}

func (f *fakeAPI) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func testSession(username string) models.Session {
	return models.Session{
		Username:   username,
		DurationMs: 61005,
		Laps: []models.Lap{
			{Label: "Lap 1", TimeMs: 30000},
			{Label: "Lap 2", TimeMs: 61005},
		},
		Note: "warmup",
		Date: time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC),
	}
}

func TestSaveSession_EmptyUsernameSendsNothing(t *testing.T) {
	api := &fakeAPI{leaderboard: `[]`}
	server := httptest.NewServer(api.handler())
	defer server.Close()

	client := NewTimeeeClient(server.URL)

	for _, username := range []string{"", "   "} {
		err := client.SaveSession(context.Background(), testSession(username))

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr, "SaveSession(%q)", username)
		assert.Equal(t, "username", validationErr.Field)
	}

	assert.Zero(t, api.postCount(), "no create request should be sent")
}

func TestSaveSession_SendsExactlyOneCreateRequest(t *testing.T) {
	api := &fakeAPI{leaderboard: `[{"username":"ana","totalMs":61005}]`}
	server := httptest.NewServer(api.handler())
	defer server.Close()

	client := NewTimeeeClient(server.URL)
	session := testSession("ana")

	require.NoError(t, client.SaveSession(context.Background(), session))
	require.Equal(t, 1, api.postCount())

	got := api.posts[0]
	assert.Equal(t, session.Username, got.Username)
	assert.Equal(t, session.DurationMs, got.DurationMs)
	assert.Equal(t, session.Note, got.Note)
	assert.True(t, got.Date.Equal(session.Date), "posted date = %v, want %v", got.Date, session.Date)
	assert.Equal(t, session.Laps, got.Laps)

	assert.Equal(t, 1, api.leaderboardGets, "leaderboard should refresh once after a save")
	assert.Equal(t, []models.LeaderboardEntry{{Username: "ana", TotalMs: 61005}}, client.Leaderboard())
}

func TestSaveSession_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewTimeeeClient(url)
	err := client.SaveSession(context.Background(), testSession("ana"))

	var backendErr *BackendUnavailableError
	require.ErrorAs(t, err, &backendErr)
	assert.False(t, client.Saving(), "save still marked in flight after failure")
}

func TestSaveSession_ServiceFailure(t *testing.T) {
	api := &fakeAPI{leaderboard: `[]`, postStatus: http.StatusInternalServerError}
	server := httptest.NewServer(api.handler())
	defer server.Close()

	client := NewTimeeeClient(server.URL)
	err := client.SaveSession(context.Background(), testSession("ana"))

	var backendErr *BackendUnavailableError
	require.ErrorAs(t, err, &backendErr)
	assert.Zero(t, api.leaderboardGets, "leaderboard refreshed after failed save")
}

func TestSaveSession_RejectsOverlappingSave(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{leaderboard: `[]`, postGate: gate}
	server := httptest.NewServer(api.handler())
	defer server.Close()

	client := NewTimeeeClient(server.URL)

	var firstErr atomic.Value
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := client.SaveSession(context.Background(), testSession("ana")); err != nil {
			firstErr.Store(err)
		}
	}()

	require.Eventually(t, func() bool { return api.postCount() > 0 }, 2*time.Second, 5*time.Millisecond,
		"first save never reached the server")

	assert.ErrorIs(t, client.SaveSession(context.Background(), testSession("ana")), ErrSaveInProgress)

	close(gate)
	<-done

	err, _ := firstErr.Load().(error)
	require.NoError(t, err, "first save failed")
	assert.Equal(t, 1, api.postCount())
}

func TestFetchLeaderboard_KeepsOrder(t *testing.T) {
	api := &fakeAPI{leaderboard: `[{"username":"a","totalMs":500},{"username":"b","totalMs":100}]`}
	server := httptest.NewServer(api.handler())
	defer server.Close()

	client := NewTimeeeClient(server.URL)
	require.NoError(t, client.FetchLeaderboard(context.Background()))

	assert.Equal(t, []models.LeaderboardEntry{
		{Username: "a", TotalMs: 500},
		{Username: "b", TotalMs: 100},
	}, client.Leaderboard())
}

func TestFetchLeaderboard_FailureKeepsSnapshot(t *testing.T) {
	api := &fakeAPI{leaderboard: `[{"username":"a","totalMs":500}]`}
	server := httptest.NewServer(api.handler())
	defer server.Close()

	client := NewTimeeeClient(server.URL)
	require.NoError(t, client.FetchLeaderboard(context.Background()))

	api.mu.Lock()
	api.failLeaderboard = true
	api.mu.Unlock()

	assert.Error(t, client.FetchLeaderboard(context.Background()))
	assert.Equal(t, []models.LeaderboardEntry{{Username: "a", TotalMs: 500}}, client.Leaderboard())
}

func TestLeaderboard_EmptyBeforeFirstFetch(t *testing.T) {
	client := NewTimeeeClient("http://127.0.0.1:0")
	assert.Empty(t, client.Leaderboard())
}
