package stopwatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timeee/go/clients/timeee_client"
	"github.com/mcdev12/timeee/go/internal/models"
	"github.com/mcdev12/timeee/go/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var startTime = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

// fakeBackend records posted sessions and serves a fixed leaderboard.
type fakeBackend struct {
	mu    sync.Mutex
	posts []models.Session
	board []models.LeaderboardEntry
}

func (b *fakeBackend) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/session", func(w http.ResponseWriter, r *http.Request) {
		var s models.Session
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		b.posts = append(b.posts, s)
		b.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("GET /api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(b.board)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (b *fakeBackend) postCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.posts)
}

// MockSessionClient is a mock of SessionClient.
type MockSessionClient struct {
	mock.Mock
}

func (m *MockSessionClient) SaveSession(ctx context.Context, session models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionClient) FetchLeaderboard(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSessionClient) Leaderboard() []models.LeaderboardEntry {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.LeaderboardEntry)
}

func (m *MockSessionClient) ListSessions(ctx context.Context, username string) ([]models.StoredSession, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StoredSession), args.Error(1)
}

type harness struct {
	controller *Controller
	engine     *timer.Engine
	clock      *clockwork.FakeClock
	out        *bytes.Buffer
	prefs      *PreferencesStore
}

func newHarness(t *testing.T, client SessionClient) *harness {
	t.Helper()
	clock := clockwork.NewFakeClockAt(startTime)
	engine := timer.New(clock, timer.Config{})
	prefs := NewPreferencesStore(filepath.Join(t.TempDir(), "preferences.yaml"))
	out := &bytes.Buffer{}
	t.Cleanup(engine.Stop)
	return &harness{
		controller: NewController(engine, client, prefs, clock, out),
		engine:     engine,
		clock:      clock,
		out:        out,
		prefs:      prefs,
	}
}

func TestController_KeyShortcuts(t *testing.T) {
	client := new(MockSessionClient)
	h := newHarness(t, client)
	ctx := context.Background()

	h.controller.HandleLine(ctx, " ")
	require.True(t, h.engine.Running(), "space did not start the timer")

	h.clock.Advance(1500 * time.Millisecond)
	h.controller.HandleLine(ctx, "l")
	h.controller.HandleLine(ctx, "L")
	laps := h.engine.Laps()
	require.Len(t, laps, 2)
	assert.Equal(t, "Lap 2", laps[1].Label)

	h.controller.HandleLine(ctx, " ")
	require.False(t, h.engine.Running(), "space did not stop the timer")
	assert.Equal(t, int64(1500), h.engine.CurrentElapsed())

	h.controller.HandleLine(ctx, "R")
	assert.Zero(t, h.engine.CurrentElapsed())
	assert.Empty(t, h.engine.Laps())

	client.AssertExpectations(t)
}

func TestController_UnboundKeysIgnored(t *testing.T) {
	h := newHarness(t, new(MockSessionClient))

	assert.False(t, h.controller.HandleKey('x'))
	assert.False(t, h.engine.Running())
}

func TestController_SaveWithoutUsername(t *testing.T) {
	backend := &fakeBackend{}
	srv := backend.start(t)
	h := newHarness(t, timeee_client.NewTimeeeClient(srv.URL))

	notice := h.controller.Save(context.Background())

	assert.Equal(t, NoticeUsernameRequired, notice)
	assert.Zero(t, backend.postCount(), "no request should reach the backend")
}

func TestController_SaveSendsEngineState(t *testing.T) {
	backend := &fakeBackend{board: []models.LeaderboardEntry{
		{Username: "ana", TotalMs: 61005},
		{Username: "bo", TotalMs: 30000},
	}}
	srv := backend.start(t)
	h := newHarness(t, timeee_client.NewTimeeeClient(srv.URL))
	ctx := context.Background()

	h.controller.HandleLine(ctx, "user ana")
	h.controller.HandleLine(ctx, "note tempo run")
	h.engine.Start()
	h.clock.Advance(61005 * time.Millisecond)
	h.engine.Stop()
	h.engine.Lap()

	notice := h.controller.Save(ctx)
	require.Equal(t, NoticeSaved, notice)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.posts, 1)
	got := backend.posts[0]
	assert.Equal(t, "ana", got.Username)
	assert.Equal(t, "tempo run", got.Note)
	assert.Equal(t, int64(61005), got.DurationMs)
	assert.Equal(t, []models.Lap{{Label: "Lap 1", TimeMs: 61005}}, got.Laps)
	assert.True(t, got.Date.Equal(startTime.Add(61005*time.Millisecond)), "date = %v", got.Date)

	assert.Contains(t, h.out.String(), "1. ana  01:01.00\n2. bo  00:30.00")
}

func TestController_SaveStampsSaveTime(t *testing.T) {
	client := new(MockSessionClient)
	h := newHarness(t, client)
	require.NoError(t, h.controller.SetUsername("ana"))

	h.engine.Start()
	h.clock.Advance(2 * time.Second)
	h.engine.Stop()
	h.clock.Advance(time.Minute)
	saveAt := h.clock.Now()

	client.On("SaveSession", mock.Anything, mock.MatchedBy(func(s models.Session) bool {
		return s.Username == "ana" && s.DurationMs == 2000 && s.Date.Equal(saveAt)
	})).Return(nil).Once()
	client.On("Leaderboard").Return([]models.LeaderboardEntry{{Username: "ana", TotalMs: 2000}}).Once()

	assert.Equal(t, NoticeSaved, h.controller.Save(context.Background()))
	assert.Contains(t, h.out.String(), "1. ana  00:02.00")
	client.AssertExpectations(t)
}

func TestController_SaveBackendDown(t *testing.T) {
	backend := &fakeBackend{}
	srv := backend.start(t)
	srv.Close()

	h := newHarness(t, timeee_client.NewTimeeeClient(srv.URL))
	require.NoError(t, h.controller.SetUsername("ana"))

	assert.Equal(t, NoticeBackendDown, h.controller.Save(context.Background()))
}

func TestController_SaveInProgress(t *testing.T) {
	client := new(MockSessionClient)
	client.On("SaveSession", mock.Anything, mock.Anything).Return(timeee_client.ErrSaveInProgress).Once()
	h := newHarness(t, client)
	require.NoError(t, h.controller.SetUsername("ana"))

	assert.Equal(t, NoticeSaveInProgress, h.controller.Save(context.Background()))
	client.AssertExpectations(t)
	client.AssertNotCalled(t, "Leaderboard")
}

func TestController_BoardRefreshesFirst(t *testing.T) {
	client := new(MockSessionClient)
	client.On("FetchLeaderboard", mock.Anything).Return(nil).Once()
	client.On("Leaderboard").Return([]models.LeaderboardEntry{
		{Username: "bo", TotalMs: 9000},
		{Username: "ana", TotalMs: 5000},
	}).Once()
	h := newHarness(t, client)

	h.controller.HandleLine(context.Background(), "board")

	assert.Contains(t, h.out.String(), "1. bo  00:09.00\n2. ana  00:05.00")
	client.AssertExpectations(t)
}

func TestController_History(t *testing.T) {
	client := new(MockSessionClient)
	h := newHarness(t, client)

	h.controller.HandleLine(context.Background(), "history")
	assert.Contains(t, h.out.String(), NoticeUsernameRequired)
	client.AssertNotCalled(t, "ListSessions", mock.Anything, mock.Anything)

	require.NoError(t, h.controller.SetUsername("ana"))
	client.On("ListSessions", mock.Anything, "ana").Return([]models.StoredSession{{
		ID:      uuid.New(),
		Session: models.Session{Username: "ana", DurationMs: 1000, Laps: []models.Lap{}},
	}}, nil).Once()
	h.controller.HandleLine(context.Background(), "history")
	assert.Contains(t, h.out.String(), "00:01.00  0 laps")

	client.On("ListSessions", mock.Anything, "ana").Return(nil, errors.New("connection refused")).Once()
	h.controller.HandleLine(context.Background(), "history")
	assert.Contains(t, h.out.String(), NoticeBackendDown)

	client.AssertExpectations(t)
}

func TestController_UsernamePersists(t *testing.T) {
	h := newHarness(t, new(MockSessionClient))

	h.controller.HandleLine(context.Background(), "user  ana ")

	reloaded := NewController(h.engine, new(MockSessionClient), h.prefs, h.clock, &bytes.Buffer{})
	assert.Equal(t, "ana", reloaded.Username())
}

func TestController_Quit(t *testing.T) {
	h := newHarness(t, new(MockSessionClient))

	assert.False(t, h.controller.HandleLine(context.Background(), "help"), "help should not quit")
	assert.True(t, h.controller.HandleLine(context.Background(), "quit"))
}

func TestRenderLeaderboard(t *testing.T) {
	got := RenderLeaderboard([]models.LeaderboardEntry{
		{Username: "ana", TotalMs: 3600000},
		{Username: "bo", TotalMs: 0},
	})
	assert.Equal(t, "1. ana  60:00.00\n2. bo  00:00.00", got)
	assert.Equal(t, "No data yet.", RenderLeaderboard(nil))
}

func TestRenderLaps(t *testing.T) {
	assert.Equal(t, "No laps yet.", RenderLaps(nil))

	got := RenderLaps([]models.Lap{{Label: "Lap 1", TimeMs: 1000}, {Label: "Lap 2", TimeMs: 61005}})
	assert.Equal(t, "Lap 1  00:01.00\nLap 2  01:01.00", got)
}
