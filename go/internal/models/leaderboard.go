package models

// LeaderboardEntry is one row of the per-user ranking of accumulated time.
type LeaderboardEntry struct {
	Username string `json:"username"`
	TotalMs  int64  `json:"totalMs"`
}
