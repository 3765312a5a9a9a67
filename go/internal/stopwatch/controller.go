package stopwatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/timeee/go/clients/timeee_client"
	"github.com/mcdev12/timeee/go/internal/models"
	"github.com/mcdev12/timeee/go/internal/timer"
	"github.com/rs/zerolog/log"
)

// Notices shown after a save attempt.
const (
	NoticeUsernameRequired = "Please set username"
	NoticeBackendDown      = "Backend not running!"
	NoticeSaveInProgress   = "Save already in progress"
	NoticeSaved            = "Session saved!"
)

// SessionClient is the part of the timeee API client the stopwatch uses.
type SessionClient interface {
	SaveSession(ctx context.Context, session models.Session) error
	FetchLeaderboard(ctx context.Context) error
	Leaderboard() []models.LeaderboardEntry
	ListSessions(ctx context.Context, username string) ([]models.StoredSession, error)
}

// Controller maps terminal input onto the timer engine and the API client.
// Engine calls are never made while outMu is held: Stop and Reset wait for
// the tick goroutine, which may itself be writing through RenderTick.
type Controller struct {
	engine *timer.Engine
	client SessionClient
	prefs  *PreferencesStore
	clock  clockwork.Clock

	outMu sync.Mutex
	out   io.Writer

	mu       sync.Mutex
	username string
	note     string
}

// NewController loads the stored username and returns a ready controller.
// An unreadable preferences file is logged and treated as empty.
func NewController(engine *timer.Engine, client SessionClient, prefs *PreferencesStore, clock clockwork.Clock, out io.Writer) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	stored, err := prefs.Load()
	if err != nil {
		log.Warn().Err(err).Str("path", prefs.Path()).Msg("failed to load preferences")
	}

	return &Controller{
		engine:   engine,
		client:   client,
		prefs:    prefs,
		clock:    clock,
		out:      out,
		username: stored.Username,
	}
}

func (c *Controller) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

// SetUsername changes the username and persists it immediately.
func (c *Controller) SetUsername(name string) error {
	name = strings.TrimSpace(name)

	c.mu.Lock()
	c.username = name
	c.mu.Unlock()

	if err := c.prefs.Save(Preferences{Username: name}); err != nil {
		return fmt.Errorf("save username: %w", err)
	}
	return nil
}

func (c *Controller) SetNote(note string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.note = strings.TrimSpace(note)
}

// HandleKey applies a single-key shortcut. It reports whether the key is bound.
func (c *Controller) HandleKey(key rune) bool {
	switch key {
	case ' ':
		c.engine.Toggle()
		state := "stopped"
		if c.engine.Running() {
			state = "running"
		}
		c.println(fmt.Sprintf("%s  %s", timer.FormatTime(c.engine.CurrentElapsed()), state))
	case 'l', 'L':
		lap := c.engine.Lap()
		c.println(fmt.Sprintf("%s  %s", lap.Label, timer.FormatTime(lap.TimeMs)))
	case 'r', 'R':
		c.engine.Reset()
		c.println(timer.FormatTime(0))
	default:
		return false
	}
	return true
}

// HandleLine runs one line of input: a command word, or otherwise a run of
// key shortcuts. It returns true when the user asked to quit.
func (c *Controller) HandleLine(ctx context.Context, line string) bool {
	command, arg, _ := strings.Cut(strings.TrimSpace(line), " ")

	switch strings.ToLower(command) {
	case "quit", "exit":
		return true
	case "help":
		c.println(helpText)
	case "user":
		if err := c.SetUsername(arg); err != nil {
			log.Error().Err(err).Msg("failed to persist username")
		}
		c.println(fmt.Sprintf("username: %s", c.Username()))
	case "note":
		c.SetNote(arg)
	case "save":
		c.Save(ctx)
	case "board":
		c.ShowLeaderboard(ctx)
	case "history":
		c.ShowHistory(ctx)
	case "laps":
		c.println(RenderLaps(c.engine.Laps()))
	case "":
		if line == "" {
			c.println(timer.FormatTime(c.engine.CurrentElapsed()))
			return false
		}
		c.handleKeys(line)
	default:
		c.handleKeys(line)
	}
	return false
}

func (c *Controller) handleKeys(line string) {
	for _, key := range line {
		c.HandleKey(key)
	}
}

// Save submits the current engine state as a session and prints the
// resulting notice, which is also returned. The timer keeps its state.
func (c *Controller) Save(ctx context.Context) string {
	c.mu.Lock()
	username, note := c.username, c.note
	c.mu.Unlock()

	session := models.NewSession(username, note, c.engine.Snapshot(), c.clock.Now())
	err := c.client.SaveSession(ctx, session)

	notice := noticeFor(err)
	c.println(notice)
	if err == nil {
		c.println(RenderLeaderboard(c.client.Leaderboard()))
	}
	return notice
}

func noticeFor(err error) string {
	var validationErr *timeee_client.ValidationError
	switch {
	case err == nil:
		return NoticeSaved
	case errors.As(err, &validationErr):
		return NoticeUsernameRequired
	case errors.Is(err, timeee_client.ErrSaveInProgress):
		return NoticeSaveInProgress
	default:
		return NoticeBackendDown
	}
}

// RefreshLeaderboard fetches the ranking without printing it. Failures are
// logged by the client and the previous snapshot stays in place.
func (c *Controller) RefreshLeaderboard(ctx context.Context) {
	_ = c.client.FetchLeaderboard(ctx)
}

func (c *Controller) ShowLeaderboard(ctx context.Context) {
	c.RefreshLeaderboard(ctx)
	c.println(RenderLeaderboard(c.client.Leaderboard()))
}

func (c *Controller) ShowHistory(ctx context.Context) {
	username := c.Username()
	if username == "" {
		c.println(NoticeUsernameRequired)
		return
	}

	sessions, err := c.client.ListSessions(ctx, username)
	if err != nil {
		log.Warn().Err(err).Msg("failed to list sessions")
		c.println(NoticeBackendDown)
		return
	}
	c.println(RenderHistory(sessions))
}

// RenderTick redraws the running display in place. It is meant to be used
// as the engine's TickFunc.
func (c *Controller) RenderTick(elapsedMs int64) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, "\r%s ", timer.FormatTime(elapsedMs))
}

func (c *Controller) println(text string) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintln(c.out, text)
}
