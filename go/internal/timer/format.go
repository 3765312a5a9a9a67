package timer

import "fmt"

// FormatTime renders milliseconds as MM:SS.CC. Minutes are not wrapped at 60.
func FormatTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalHundredths := ms / 10
	hundredths := totalHundredths % 100
	totalSeconds := totalHundredths / 100
	seconds := totalSeconds % 60
	minutes := totalSeconds / 60
	return fmt.Sprintf("%02d:%02d.%02d", minutes, seconds, hundredths)
}
