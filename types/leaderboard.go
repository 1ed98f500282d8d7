package types

// LeaderboardGroup is one bucket of the points leaderboard: every user
// holding the same score, with the arithmetic mean of their ages rounded
// to two decimals. Names keep the store's insertion order.
type LeaderboardGroup struct {
	Points     int      `json:"points"`
	Names      []string `json:"names"`
	AverageAge float64  `json:"average_age"`
}
