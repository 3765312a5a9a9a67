package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timeee/go/internal/events"
	"github.com/mcdev12/timeee/go/internal/models"
	"github.com/mcdev12/timeee/go/internal/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLeaderboardProvider is a mock of LeaderboardProvider.
type MockLeaderboardProvider struct {
	mock.Mock
}

func (m *MockLeaderboardProvider) GetLeaderboard(ctx context.Context, limit int32) ([]models.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LeaderboardEntry), args.Error(1)
}

func startGateway(t *testing.T, provider LeaderboardProvider) (*Service, *httptest.Server) {
	t.Helper()

	svc, err := NewService(DefaultConfig(), provider, clockwork.NewFakeClock())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Start(ctx)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return svc, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/leaderboard"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "dial %s", url)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) LeaderboardEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var event LeaderboardEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func sessionSaved() outbox.Event {
	return outbox.Event{ID: uuid.New(), AggregateID: uuid.New(), EventType: events.EventTypeSessionSaved}
}

func TestService_SnapshotOnConnect(t *testing.T) {
	provider := new(MockLeaderboardProvider)
	provider.On("GetLeaderboard", mock.Anything, int32(10)).
		Return([]models.LeaderboardEntry{{Username: "ana", TotalMs: 5000}}, nil).Once()
	_, srv := startGateway(t, provider)

	event := readEvent(t, dial(t, srv))

	assert.Equal(t, EventTypeLeaderboardSnapshot, event.Type)
	require.Len(t, event.Data, 1)
	assert.Equal(t, "ana", event.Data[0].Username)
	provider.AssertExpectations(t)
}

func TestService_SnapshotFailureRejectsUpgrade(t *testing.T) {
	provider := new(MockLeaderboardProvider)
	provider.On("GetLeaderboard", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()
	svc, srv := startGateway(t, provider)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/leaderboard"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Zero(t, svc.ConnectionCount())
}

func TestService_BroadcastsOnSessionSaved(t *testing.T) {
	provider := new(MockLeaderboardProvider)
	provider.On("GetLeaderboard", mock.Anything, mock.Anything).Return([]models.LeaderboardEntry{}, nil).Twice()
	provider.On("GetLeaderboard", mock.Anything, mock.Anything).Return([]models.LeaderboardEntry{
		{Username: "bo", TotalMs: 9000},
		{Username: "ana", TotalMs: 5000},
	}, nil).Once()
	svc, srv := startGateway(t, provider)

	first := dial(t, srv)
	second := dial(t, srv)
	readEvent(t, first)
	readEvent(t, second)

	require.NoError(t, svc.Publish(context.Background(), sessionSaved()))

	for _, conn := range []*websocket.Conn{first, second} {
		event := readEvent(t, conn)
		assert.Equal(t, EventTypeLeaderboardUpdated, event.Type)
		require.Len(t, event.Data, 2)
		assert.Equal(t, "bo", event.Data[0].Username)
		assert.Equal(t, "ana", event.Data[1].Username)
	}
	provider.AssertExpectations(t)
}

func TestService_IgnoresOtherEvents(t *testing.T) {
	provider := new(MockLeaderboardProvider)
	svc, _ := startGateway(t, provider)

	err := svc.HandleEvent(context.Background(), outbox.Event{ID: uuid.New(), EventType: "SomethingElse"})
	require.NoError(t, err)
	provider.AssertNotCalled(t, "GetLeaderboard", mock.Anything, mock.Anything)
}

func TestService_EmptyLeaderboardIsArray(t *testing.T) {
	provider := new(MockLeaderboardProvider)
	provider.On("GetLeaderboard", mock.Anything, mock.Anything).Return([]models.LeaderboardEntry{}, nil).Once()
	_, srv := startGateway(t, provider)
	conn := dial(t, srv)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data":[]`)
}
