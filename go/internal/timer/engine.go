package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timeee/go/internal/models"
)

// DefaultTickInterval approximates a 100Hz display refresh.
const DefaultTickInterval = 10 * time.Millisecond

// Config contains runtime options for Engine.
type Config struct {
	TickInterval time.Duration
}

// TickFunc receives the elapsed milliseconds on every tick while running.
// It must not call Stop, Toggle or Reset on the engine that invoked it.
type TickFunc func(elapsedMs int64)

// Engine is a two-state (stopped/running) stopwatch with lap capture.
//
// Elapsed time is always derived from the clock as now minus a reference
// instant, never from summing tick intervals, so irregular ticks cannot
// introduce drift.
type Engine struct {
	mu          sync.Mutex
	clock       clockwork.Clock
	options     Config
	running     bool
	reference   time.Time
	accumulated time.Duration
	laps        []models.Lap
	onTick      TickFunc

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a stopped Engine with zero elapsed time.
func New(clock clockwork.Clock, options Config) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if options.TickInterval <= 0 {
		options.TickInterval = DefaultTickInterval
	}
	return &Engine{
		clock:   clock,
		options: options,
	}
}

// OnTick registers the tick listener. Passing nil removes it.
func (e *Engine) OnTick(fn TickFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = fn
}

// Start begins accumulating time. Calling Start while running is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return
	}
	e.reference = e.clock.Now().Add(-e.accumulated)
	e.running = true
	e.startTickerLocked()
}

// Stop freezes the elapsed time. Calling Stop while stopped is a no-op.
// When Stop returns no further tick callback will run.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.accumulated = e.clock.Since(e.reference)
	e.running = false
	done := e.cancelTickerLocked()
	e.mu.Unlock()

	waitForTicker(done)
}

// Toggle stops a running engine and starts a stopped one.
func (e *Engine) Toggle() {
	if e.Running() {
		e.Stop()
		return
	}
	e.Start()
}

// Lap records the current elapsed time as the next lap and returns it.
// Laps can be captured in either state.
func (e *Engine) Lap() models.Lap {
	e.mu.Lock()
	defer e.mu.Unlock()

	lap := models.Lap{
		Label:  models.LapLabel(len(e.laps) + 1),
		TimeMs: e.elapsedLocked().Milliseconds(),
	}
	e.laps = append(e.laps, lap)
	return lap
}

// Reset stops the engine, zeroes elapsed time and discards all laps.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.running = false
	e.accumulated = 0
	e.reference = time.Time{}
	e.laps = nil
	done := e.cancelTickerLocked()
	e.mu.Unlock()

	waitForTicker(done)
}

// CurrentElapsed returns the accumulated milliseconds since the last reset.
func (e *Engine) CurrentElapsed() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsedLocked().Milliseconds()
}

// Running reports whether the engine is accumulating time.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Laps returns a copy of the captured laps in capture order.
func (e *Engine) Laps() []models.Lap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lapsLocked()
}

// Snapshot returns a consistent view of the whole timer state.
func (e *Engine) Snapshot() models.TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.TimerState{
		Running:   e.running,
		ElapsedMs: e.elapsedLocked().Milliseconds(),
		Laps:      e.lapsLocked(),
	}
}

func (e *Engine) elapsedLocked() time.Duration {
	if !e.running {
		return e.accumulated
	}
	return e.clock.Since(e.reference)
}

func (e *Engine) lapsLocked() []models.Lap {
	laps := make([]models.Lap, len(e.laps))
	copy(laps, e.laps)
	return laps
}

func (e *Engine) startTickerLocked() {
	ticker := e.clock.NewTicker(e.options.TickInterval)
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	go e.runTicker(ticker, e.stopCh, e.doneCh)
}

// cancelTickerLocked signals the tick loop to exit and returns the channel
// that is closed once it has. The caller must wait on it after unlocking.
func (e *Engine) cancelTickerLocked() chan struct{} {
	if e.stopCh == nil {
		return nil
	}
	close(e.stopCh)
	done := e.doneCh
	e.stopCh = nil
	e.doneCh = nil
	return done
}

func waitForTicker(done chan struct{}) {
	if done != nil {
		<-done
	}
}

func (e *Engine) runTicker(ticker clockwork.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			e.mu.Lock()
			fn := e.onTick
			elapsed := e.elapsedLocked()
			e.mu.Unlock()

			select {
			case <-stop:
				return
			default:
			}
			if fn != nil {
				fn(elapsed.Milliseconds())
			}
		}
	}
}
