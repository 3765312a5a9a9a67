package timeee_client

import (
	"sync"
	"sync/atomic"

	"github.com/mcdev12/timeee/go/clients"
	"github.com/mcdev12/timeee/go/internal/models"
)

// TimeeeClient submits sessions to the timeee API and keeps the last
// leaderboard snapshot it fetched.
type TimeeeClient struct {
	*clients.BaseClient

	saving atomic.Bool

	mu          sync.RWMutex
	leaderboard []models.LeaderboardEntry
}

func NewTimeeeClient(baseURL string) *TimeeeClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := &TimeeeClient{
		BaseClient: clients.NewBaseClient(baseURL, 0),
	}

	client.SetHeader(ContentTypeHeader, ContentTypeJSON)

	return client
}
