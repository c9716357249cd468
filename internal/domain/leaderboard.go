package domain

// LeaderboardEntry is one row of the ranked snapshot. The snapshot is a
// derived view computed at query time, never persisted.
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	UserID         string  `json:"user_id"`
	Username       string  `json:"username"`
	TotalCoins     float64 `json:"total_coins"`
	MiningPower    float64 `json:"mining_power"`
	CurrentStreak  int     `json:"current_streak"`
	TotalReferrals int     `json:"total_referrals"`
	Tier           string  `json:"tier"`
}

// TierForRank maps a 1-based rank to its display tier.
func TierForRank(rank int) string {
	switch {
	case rank == 1:
		return "LEGENDARY"
	case rank <= 3:
		return "ELITE"
	case rank <= 10:
		return "MASTER"
	case rank <= 25:
		return "EXPERT"
	default:
		return "MINER"
	}
}
