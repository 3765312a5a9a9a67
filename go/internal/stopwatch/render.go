package stopwatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcdev12/timeee/go/internal/models"
	"github.com/mcdev12/timeee/go/internal/timer"
)

const (
	noLapsText        = "No laps yet."
	noLeaderboardText = "No data yet."
	noHistoryText     = "No sessions yet."
)

// RenderLaps lists laps in capture order, one per line.
func RenderLaps(laps []models.Lap) string {
	if len(laps) == 0 {
		return noLapsText
	}
	lines := make([]string, len(laps))
	for i, lap := range laps {
		lines[i] = fmt.Sprintf("%s  %s", lap.Label, timer.FormatTime(lap.TimeMs))
	}
	return strings.Join(lines, "\n")
}

// RenderLeaderboard numbers the rows from 1 in the order given.
func RenderLeaderboard(entries []models.LeaderboardEntry) string {
	if len(entries) == 0 {
		return noLeaderboardText
	}
	lines := make([]string, len(entries))
	for i, entry := range entries {
		lines[i] = fmt.Sprintf("%d. %s  %s", i+1, entry.Username, timer.FormatTime(entry.TotalMs))
	}
	return strings.Join(lines, "\n")
}

func RenderHistory(sessions []models.StoredSession) string {
	if len(sessions) == 0 {
		return noHistoryText
	}
	lines := make([]string, len(sessions))
	for i, s := range sessions {
		line := fmt.Sprintf("%s  %s  %d laps", s.Date.Local().Format(time.DateTime), timer.FormatTime(s.DurationMs), len(s.Laps))
		if s.Note != "" {
			line += "  " + s.Note
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

const helpText = `keys:     space start/stop   l lap   r reset
commands: user <name>   note <text>   save   laps   board   history   help   quit`
