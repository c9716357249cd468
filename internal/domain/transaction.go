package domain

import "time"

// Transaction types, one per crediting path. Every EKH that enters a
// balance leaves a row here.
const (
	TxTypeMiningClaim    = "mining_claim"
	TxTypeAdBonus        = "ad_bonus"
	TxTypeAutoMining     = "auto_mining"
	TxTypeReferralBonus  = "referral_bonus"  // claimant side
	TxTypeReferralReward = "referral_reward" // referrer side
	TxTypeTaskReward     = "task_reward"
)

// Transaction is an append-only audit record of a balance credit.
type Transaction struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    string                 `db:"user_id" json:"user_id"`
	Type      string                 `db:"type" json:"type"`
	Amount    float64                `db:"amount" json:"amount"`
	Meta      map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}
