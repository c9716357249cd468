package domain

import "time"

// User is the ledger row for one account. Counters on it only move through
// the crediting operations in internal/service; nothing writes total_coins
// directly from a request payload.
type User struct {
	ID             string     `db:"id" json:"id"`
	Username       string     `db:"username" json:"username"`
	TotalCoins     float64    `db:"total_coins" json:"total_coins"`
	CoinsPerSecond float64    `db:"coins_per_second" json:"coins_per_second"`
	CurrentStreak  int        `db:"current_streak" json:"current_streak"`
	LongestStreak  int        `db:"longest_streak" json:"longest_streak"`
	TotalReferrals int        `db:"total_referrals" json:"total_referrals"`
	ReferralCode   string     `db:"referral_code" json:"referral_code"`
	ReferredBy     *string    `db:"referred_by" json:"referred_by,omitempty"`
	LastAdBonusAt  *time.Time `db:"last_ad_bonus_at" json:"last_ad_bonus_at,omitempty"`
	LastClaimAt    *time.Time `db:"last_claim_at" json:"last_claim_at,omitempty"`
	LastAccrualAt  time.Time  `db:"last_accrual_at" json:"-"`
	LastLoginAt    *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// NextStreak decides the streak value for a new session claim. The streak
// continues only when the previous claim happened inside the window
// (session duration plus grace); otherwise it restarts at 1.
func NextStreak(current int, prevClaimAt *time.Time, now time.Time, window time.Duration) int {
	if prevClaimAt == nil || now.Sub(*prevClaimAt) > window {
		return 1
	}
	return current + 1
}
