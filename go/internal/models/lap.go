package models

import "fmt"

// Lap is a cumulative timestamp captured from a running or stopped timer.
type Lap struct {
	Label  string `json:"label"`
	TimeMs int64  `json:"timeMs"`
}

// LapLabel returns the label for the lap captured at 1-based position n.
func LapLabel(n int) string {
	return fmt.Sprintf("Lap %d", n)
}

// TimerState is a point-in-time view of a stopwatch.
type TimerState struct {
	Running   bool  `json:"running"`
	ElapsedMs int64 `json:"elapsedMs"`
	Laps      []Lap `json:"laps"`
}
