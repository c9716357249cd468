package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"ekehi_backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ReferralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// GenerateReferralCode returns a random code for a new account.
func GenerateReferralCode() string {
	bytes := make([]byte, 6)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GetByReferrer returns all referrals made by a user, newest first.
func (r *ReferralRepository) GetByReferrer(ctx context.Context, userID string) ([]domain.Referral, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, referrer_id, referred_id, reward_claimed, created_at
		 FROM referrals
		 WHERE referrer_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var referrals []domain.Referral
	for rows.Next() {
		var ref domain.Referral
		if err := rows.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.RewardClaimed, &ref.CreatedAt); err != nil {
			return nil, err
		}
		referrals = append(referrals, ref)
	}
	return referrals, rows.Err()
}

// GetStats returns the referrer's totals. Earnings come from the credit
// ledger so they stay correct if the per-referral reward ever changes.
func (r *ReferralRepository) GetStats(ctx context.Context, userID string) (*domain.ReferralStats, error) {
	stats := &domain.ReferralStats{}

	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM referrals WHERE referrer_id = $1`,
		userID,
	).Scan(&stats.TotalReferrals)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)
		 FROM transactions
		 WHERE user_id = $1 AND type = $2`,
		userID, domain.TxTypeReferralReward,
	).Scan(&stats.TotalEarned)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
