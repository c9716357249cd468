package domain

import "time"

// Referral links a referred user to their referrer. referred_id is unique
// across the table: a user can be referred at most once, ever.
type Referral struct {
	ID            int64     `db:"id" json:"id"`
	ReferrerID    string    `db:"referrer_id" json:"referrer_id"`
	ReferredID    string    `db:"referred_id" json:"referred_id"`
	RewardClaimed bool      `db:"reward_claimed" json:"reward_claimed"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ReferralStats summarises a referrer's standing.
type ReferralStats struct {
	TotalReferrals int     `json:"total_referrals"`
	TotalEarned    float64 `json:"total_earned"`
}
