package domain

import "time"

// PurchaseStatus tracks a presale purchase through the payment gateway.
// A purchase is immutable once completed or failed.
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

// PresalePurchase is one purchase attempt. Token price is snapshotted at
// submit time so later price changes never alter a recorded purchase.
type PresalePurchase struct {
	ID            string         `db:"id" json:"id"`
	UserID        string         `db:"user_id" json:"user_id"`
	AmountUSD     float64        `db:"amount_usd" json:"amount_usd"`
	TokenPrice    float64        `db:"token_price" json:"token_price"`
	TokensAmount  float64        `db:"tokens_amount" json:"tokens_amount"`
	PaymentMethod string         `db:"payment_method" json:"payment_method"`
	Status        PurchaseStatus `db:"status" json:"status"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	FinalizedAt   *time.Time     `db:"finalized_at" json:"finalized_at,omitempty"`
}

// AutoMineUnitTokens is the purchase volume that unlocks 1 EKH/second of
// auto-mining.
const AutoMineUnitTokens = 10000.0

// RatePerSecond derives coins_per_second from a user's completed purchase
// total: 1 EKH/second per 10,000 tokens, fractional below that.
func RatePerSecond(totalTokens float64) float64 {
	if totalTokens <= 0 {
		return 0
	}
	return totalTokens / AutoMineUnitTokens
}
