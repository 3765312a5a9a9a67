package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mcdev12/timeee/go/internal/db"
	"github.com/mcdev12/timeee/go/internal/dbconfig"
	"github.com/rs/zerolog/log"
)

// setupDatabase connects to Postgres and applies the embedded schema. The
// DSN is returned for the LISTEN connection.
func setupDatabase(ctx context.Context) (*sql.DB, string, error) {
	dbConfig := dbconfig.NewConfigFromEnv()
	dsn := dbConfig.DSN()

	database, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.ApplySchema(ctx, database); err != nil {
		database.Close()
		return nil, "", fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Info().
		Str("user", dbConfig.User).
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("connected to database")
	return database, dsn, nil
}
