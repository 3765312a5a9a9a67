package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const rootMessage = "Timeee Backend is Running 🚀"

func setupServer(services *Services, port string) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           h2c.NewHandler(newHandler(services), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func newHandler(services *Services) http.Handler {
	mux := http.NewServeMux()

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	registerServices(mux, services)
	setupHealthCheck(mux)

	return c.Handler(mux)
}

func registerServices(mux *http.ServeMux, services *Services) {
	// REST contract used by the stopwatch
	services.SessionsHTTP.RegisterRoutes(mux)

	// Connect mirror of the same operations
	mux.Handle(services.Sessions.Handler())

	// Leaderboard push
	services.Gateway.RegisterRoutes(mux)

	mux.Handle("GET /health/outbox", services.OutboxHealth)
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := w.Write([]byte(rootMessage)); err != nil {
			log.Error().Err(err).Msg("failed to write root response")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
