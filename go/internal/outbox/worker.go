package outbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Config struct {
	PollInterval time.Duration
	BatchSize    int32
	MaxRetries   int
	RetryDelay   time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Second,
		BatchSize:    100,
		MaxRetries:   3,
		RetryDelay:   time.Second,
	}
}

// Worker drains the outbox on a poll interval, or immediately after Wake.
type Worker struct {
	store     Store
	publisher Publisher
	config    Config
	clock     clockwork.Clock

	wakeCh chan struct{}

	processed atomic.Uint64
	lastSent  atomic.Int64 // unix nanos of the last batch that sent anything

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewWorker(store Store, publisher Publisher, cfg Config, clock clockwork.Clock) *Worker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	defaults := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Worker{
		store:     store,
		publisher: publisher,
		config:    cfg,
		clock:     clock,
		wakeCh:    make(chan struct{}, 1),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}
	w.running = true
	w.stopChan = make(chan struct{})
	ticker := w.clock.NewTicker(w.config.PollInterval)
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx, ticker, w.stopChan)

	log.Info().
		Dur("poll_interval", w.config.PollInterval).
		Int32("batch_size", w.config.BatchSize).
		Msg("outbox worker started")

	return nil
}

func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker not running")
	}
	w.running = false
	close(w.stopChan)
	w.mu.Unlock()

	w.wg.Wait()

	log.Info().Msg("outbox worker stopped")
	return nil
}

// Running reports whether the worker loop is active.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Stats returns the number of events sent by the loop and when the last
// one went out.
func (w *Worker) Stats() (uint64, time.Time) {
	var last time.Time
	if nanos := w.lastSent.Load(); nanos != 0 {
		last = time.Unix(0, nanos)
	}
	return w.processed.Load(), last
}

// Wake asks the worker to drain the outbox without waiting for the next poll.
// It never blocks.
func (w *Worker) Wake() {
	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
}

func (w *Worker) run(ctx context.Context, ticker clockwork.Ticker, stop <-chan struct{}) {
	defer w.wg.Done()
	defer ticker.Stop()

	// Process immediately on start
	w.processOutbox(ctx)

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.stopChan == stop {
				w.running = false
			}
			w.mu.Unlock()
			log.Info().Msg("outbox worker stopped: context done")
			return
		case <-stop:
			return
		case <-ticker.Chan():
			w.processOutbox(ctx)
		case <-w.wakeCh:
			w.processOutbox(ctx)
		}
	}
}

func (w *Worker) processOutbox(ctx context.Context) {
	result, err := w.ProcessOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to process outbox")
		return
	}
	if result.Total == 0 {
		return
	}
	if result.Sent > 0 {
		w.processed.Add(uint64(result.Sent))
		w.lastSent.Store(w.clock.Now().UnixNano())
	}

	log.Info().
		Int("total", result.Total).
		Int("successful", result.Sent).
		Msg("processed outbox events")
}

// ProcessOnce runs a single batch synchronously.
func (w *Worker) ProcessOnce(ctx context.Context) (BatchResult, error) {
	return w.store.ProcessBatch(ctx, w.config.BatchSize, w.publishWithRetry)
}

func (w *Worker) publishWithRetry(ctx context.Context, event Event) error {
	var lastErr error

	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.clock.After(w.config.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := w.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Str("event_id", event.ID.String()).
				Int("attempt", attempt+1).
				Msg("failed to publish event, retrying")
			continue
		}

		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", w.config.MaxRetries+1, lastErr)
}
