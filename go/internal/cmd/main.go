package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	config, err := loadConfig(getEnv("TIMEEE_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		database *sql.DB
		dsn      string
	)
	if config.Storage == StoragePostgres {
		database, dsn, err = setupDatabase(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up database")
		}
		defer database.Close()
	}

	services, err := setupServices(config, database, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}

	if err := services.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start background services")
	}

	port := getEnv("PORT", "8080")
	server := setupServer(services, port)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Timeee backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SEC", 10))*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	services.Close()
	cancel()

	log.Info().Msg("Timeee backend shutdown complete")
}
