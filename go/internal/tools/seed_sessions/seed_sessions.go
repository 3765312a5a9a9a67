package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/timeee/go/internal/dbconfig"
	"github.com/mcdev12/timeee/go/internal/models"
	"gopkg.in/yaml.v3"
)

// seedSession mirrors one entry of sessions.yaml
type seedSession struct {
	ID         string    `yaml:"id"`
	Username   string    `yaml:"username"`
	DurationMs int64     `yaml:"duration_ms"`
	Note       string    `yaml:"note"`
	Date       time.Time `yaml:"date"`
	Laps       []struct {
		Label  string `yaml:"label"`
		TimeMs int64  `yaml:"time_ms"`
	} `yaml:"laps"`
}

func loadSeedSessions(path string) ([]seedSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read YAML: %w", err)
	}

	var sessions []seedSession
	if err := yaml.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("unmarshal YAML: %w", err)
	}

	for i, s := range sessions {
		if _, err := uuid.Parse(s.ID); err != nil {
			return nil, fmt.Errorf("session %d: invalid id %q: %w", i, s.ID, err)
		}
		if strings.TrimSpace(s.Username) == "" {
			return nil, fmt.Errorf("session %s: username is required", s.ID)
		}
		if s.DurationMs < 0 {
			return nil, fmt.Errorf("session %s: negative duration", s.ID)
		}
	}
	return sessions, nil
}

// lapsJSON encodes laps the way the API stores them.
func (s seedSession) lapsJSON() (string, error) {
	laps := make([]models.Lap, len(s.Laps))
	for i, l := range s.Laps {
		laps[i] = models.Lap{Label: l.Label, TimeMs: l.TimeMs}
	}
	raw, err := json.Marshal(laps)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func main() {
	path := flag.String("file", "go/internal/assets/sessions.yaml", "sessions YAML file")
	flag.Parse()

	// 1) Load the YAML snapshot
	sessions, err := loadSeedSessions(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Insert and count
	var (
		total    = len(sessions)
		inserted int
		skipped  int
		errs     int
	)

	for _, s := range sessions {
		laps, err := s.lapsJSON()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error encoding laps for %s: %v\n", s.ID, err)
			errs++
			continue
		}

		cmdTag, err := pool.Exec(ctx, `
            INSERT INTO sessions (
              id, username, duration_ms, laps, note, session_date
            ) VALUES (
              $1,$2,$3,$4::jsonb,$5,$6
            )
            ON CONFLICT (id) DO NOTHING
        `,
			uuid.MustParse(s.ID), s.Username, s.DurationMs, laps, s.Note, s.Date,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting session %s: %v\n", s.ID, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Sessions seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}
