package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timeee/go/clients/timeee_client"
	"github.com/mcdev12/timeee/go/internal/stopwatch"
	"github.com/mcdev12/timeee/go/internal/timer"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	apiURL := flag.String("api", getEnv("TIMEEE_API_URL", timeee_client.DefaultBaseURL), "timeee backend base URL")
	prefsPath := flag.String("prefs", "", "preferences file (defaults to the user config dir)")
	refresh := flag.Duration("refresh", 100*time.Millisecond, "display refresh interval while running")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "warn"))
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	if *prefsPath == "" {
		path, err := stopwatch.DefaultPreferencesPath("timeee")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to resolve preferences path")
		}
		*prefsPath = path
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	engine := timer.New(clock, timer.Config{TickInterval: *refresh})
	client := timeee_client.NewTimeeeClient(*apiURL)
	controller := stopwatch.NewController(engine, client, stopwatch.NewPreferencesStore(*prefsPath), clock, os.Stdout)
	engine.OnTick(controller.RenderTick)

	go controller.RefreshLeaderboard(ctx)

	fmt.Println("Timeee stopwatch. Type help for commands.")
	if name := controller.Username(); name != "" {
		fmt.Printf("username: %s\n", name)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			engine.Stop()
			return
		case line, ok := <-lines:
			if !ok || controller.HandleLine(ctx, line) {
				engine.Stop()
				return
			}
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
