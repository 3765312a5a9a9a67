package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timeee/go/internal/events"
	"github.com/mcdev12/timeee/go/internal/outbox"
	"github.com/rs/zerolog/log"
)

// Service pushes leaderboard changes to websocket clients. Events arrive
// either from the JetStream consumer or directly through Publish.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	eventConsumer     *EventConsumer
	provider          LeaderboardProvider
	clock             clockwork.Clock
	limit             int32
}

// Config holds configuration for the leaderboard gateway
type Config struct {
	ConnectionConfig ConnectionConfig
	JetStreamConfig  JetStreamConsumerConfig
	// UseJetStream subscribes to the bus; otherwise events must be handed
	// in through Publish.
	UseJetStream     bool
	LeaderboardLimit int32
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JetStreamConfig:  DefaultJetStreamConsumerConfig(),
		LeaderboardLimit: 10,
	}
}

// NewService creates a new leaderboard gateway
func NewService(config Config, provider LeaderboardProvider, clock clockwork.Clock) (*Service, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	connectionManager := NewConnectionManager(config.ConnectionConfig)

	s := &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, provider, config.LeaderboardLimit, clock.Now),
		provider:          provider,
		clock:             clock,
		limit:             config.LeaderboardLimit,
	}

	if config.UseJetStream {
		consumer, err := NewEventConsumer(s.HandleEvent, config.JetStreamConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create event consumer: %w", err)
		}
		s.eventConsumer = consumer
	}

	return s, nil
}

// Start runs the gateway until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Bool("jetstream", s.eventConsumer != nil).Msg("starting leaderboard gateway")

	go s.connectionManager.Start(ctx)

	if s.eventConsumer != nil {
		go func() {
			if err := s.eventConsumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		}()
	}

	<-ctx.Done()

	log.Info().Msg("leaderboard gateway shutting down")
	return s.Stop()
}

// Stop shuts down the event consumer
func (s *Service) Stop() error {
	if s.eventConsumer != nil {
		if err := s.eventConsumer.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop event consumer")
		}
	}
	log.Info().Msg("leaderboard gateway stopped")
	return nil
}

// HandleEvent recomputes and broadcasts the leaderboard for events that
// change it; others are ignored.
func (s *Service) HandleEvent(ctx context.Context, event outbox.Event) error {
	if event.EventType != events.EventTypeSessionSaved {
		log.Debug().Str("event_type", event.EventType).Msg("ignoring event")
		return nil
	}

	entries, err := s.provider.GetLeaderboard(ctx, s.limit)
	if err != nil {
		return fmt.Errorf("load leaderboard: %w", err)
	}

	s.connectionManager.Broadcast(newLeaderboardEvent(EventTypeLeaderboardUpdated, entries, s.clock.Now()))

	log.Info().
		Str("event_id", event.ID.String()).
		Int("entries", len(entries)).
		Msg("leaderboard update broadcasted")
	return nil
}

// Publish implements outbox.Publisher so the outbox worker can deliver to
// the gateway in-process.
func (s *Service) Publish(ctx context.Context, event outbox.Event) error {
	return s.HandleEvent(ctx, event)
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("leaderboard gateway routes registered")
}

// ConnectionCount returns the number of connected websocket clients
func (s *Service) ConnectionCount() int {
	return s.connectionManager.ConnectionCount()
}
