package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timeee/go/internal/gateway"
	"github.com/mcdev12/timeee/go/internal/outbox"
	"github.com/mcdev12/timeee/go/internal/sessions"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Sessions     *sessions.Service
	SessionsHTTP *sessions.HTTPHandler
	Gateway      *gateway.Service
	Outbox       *outbox.Worker
	OutboxHealth *outbox.HealthChecker

	listener  *outbox.Listener
	jetstream *outbox.JetStreamPublisher
}

func setupServices(config *Config, database *sql.DB, dsn string) (*Services, error) {
	// Wire up dependency injection chain
	// Storage → Repository → App → Service/handlers, with the outbox relay
	// feeding the gateway.
	clock := clockwork.NewRealClock()
	services := &Services{}

	var (
		sessionsRepo sessions.SessionsRepository
		outboxStore  outbox.Store
		memoryRepo   *sessions.MemoryRepository
	)
	switch config.Storage {
	case StoragePostgres:
		if database == nil {
			return nil, fmt.Errorf("postgres storage requires a database connection")
		}
		sessionsRepo = sessions.NewRepository(database)
		outboxStore = outbox.NewRepository(database)
	default:
		memoryRepo = sessions.NewMemoryRepository()
		sessionsRepo = memoryRepo
		outboxStore = memoryRepo
	}

	sessionsApp := sessions.NewApp(sessionsRepo, clock)
	services.Sessions = sessions.NewService(sessionsApp)
	services.SessionsHTTP = sessions.NewHTTPHandler(sessionsApp)

	// The JetStream stream must exist before the gateway binds its consumer.
	var publisher outbox.Publisher
	if config.Events.Publisher == PublisherJetStream {
		jsConfig := outbox.DefaultJetStreamConfig()
		jsConfig.URL = config.Events.NATSURL
		jsPublisher, err := outbox.NewJetStreamPublisher(jsConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream publisher: %w", err)
		}
		services.jetstream = jsPublisher
		publisher = jsPublisher
	}

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.UseJetStream = config.Events.Publisher == PublisherJetStream
	gatewayConfig.JetStreamConfig.URL = config.Events.NATSURL
	gatewayConfig.LeaderboardLimit = config.Leaderboard.PushLimit
	leaderboardGateway, err := gateway.NewService(gatewayConfig, sessionsApp, clock)
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("failed to create leaderboard gateway: %w", err)
	}
	services.Gateway = leaderboardGateway

	switch config.Events.Publisher {
	case PublisherLocal:
		publisher = leaderboardGateway
	case PublisherLog:
		publisher = outbox.NewLogPublisher()
	}

	services.Outbox = outbox.NewWorker(outboxStore, publisher, outbox.Config{
		PollInterval: config.Outbox.PollInterval,
		BatchSize:    config.Outbox.BatchSize,
		MaxRetries:   config.Outbox.MaxRetries,
		RetryDelay:   config.Outbox.RetryDelay,
	}, clock)

	var (
		pinger        outbox.Pinger
		natsConnected func() bool
	)
	if database != nil {
		pinger = database
	}
	if services.jetstream != nil {
		natsConnected = services.jetstream.Connected
	}
	services.OutboxHealth = outbox.NewHealthChecker(services.Outbox, pinger, natsConnected)

	if memoryRepo != nil {
		memoryRepo.OnEventStored(services.Outbox.Wake)
	} else {
		listenerConfig := outbox.DefaultListenerConfig()
		listenerConfig.DatabaseURL = dsn
		listener, err := outbox.NewListener(listenerConfig, services.Outbox.Wake)
		if err != nil {
			services.Close()
			return nil, fmt.Errorf("failed to create outbox listener: %w", err)
		}
		services.listener = listener
	}

	log.Info().
		Str("storage", config.Storage).
		Str("publisher", config.Events.Publisher).
		Msg("services configured")
	return services, nil
}

// Start launches the background workers; they stop when ctx is cancelled.
func (s *Services) Start(ctx context.Context) error {
	go func() {
		if err := s.Gateway.Start(ctx); err != nil {
			log.Error().Err(err).Msg("leaderboard gateway failed")
		}
	}()

	if s.listener != nil {
		go func() {
			if err := s.listener.Start(ctx); err != nil {
				log.Error().Err(err).Msg("outbox listener failed")
			}
		}()
	}

	return s.Outbox.Start(ctx)
}

// Close stops the outbox worker and releases the NATS connection.
func (s *Services) Close() {
	if s.Outbox != nil {
		if err := s.Outbox.Stop(); err != nil {
			log.Debug().Err(err).Msg("outbox worker stop")
		}
	}
	if s.jetstream != nil {
		if err := s.jetstream.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close JetStream publisher")
		}
	}
}
