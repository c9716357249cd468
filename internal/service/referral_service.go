package service

import (
	"context"
	"errors"

	"ekehi_backend/internal/domain"
	"ekehi_backend/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferralService guarantees at-most-once crediting per referred user. The
// uniqueness constraint on referrals.referred_id is the arbiter: when two
// devices race the same claim, exactly one insert lands and the loser sees
// ErrAlreadyReferred.
type ReferralService struct {
	db              *pgxpool.Pool
	referralRepo    *repository.ReferralRepository
	transactionRepo *repository.TransactionRepository

	referredBonus float64
	referrerBonus float64
}

func NewReferralService(db *pgxpool.Pool, referredBonus, referrerBonus float64) *ReferralService {
	return &ReferralService{
		db:              db,
		referralRepo:    repository.NewReferralRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		referredBonus:   referredBonus,
		referrerBonus:   referrerBonus,
	}
}

// ClaimResult is returned to the claimant after a successful claim.
type ClaimResult struct {
	Claimant      *domain.User `json:"claimant"`
	ReferrerID    string       `json:"referrer_id"`
	ReferredBonus float64      `json:"referred_bonus"`
	ReferrerBonus float64      `json:"referrer_bonus"`
}

// Claim links the claimant to the owner of code and credits both sides.
// All checks and both credits commit atomically.
func (s *ReferralService) Claim(ctx context.Context, claimantID, code string) (*ClaimResult, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var referrerID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM users WHERE referral_code = $1`, code,
	).Scan(&referrerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	if referrerID == claimantID {
		return nil, ErrSelfReferral
	}

	// Single atomic check-and-insert; a concurrent claim for the same
	// claimant loses here, before any balance moves.
	tag, err := tx.Exec(ctx,
		`INSERT INTO referrals (referrer_id, referred_id, reward_claimed)
		 VALUES ($1, $2, true)
		 ON CONFLICT (referred_id) DO NOTHING`,
		referrerID, claimantID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAlreadyReferred
	}

	// Lock both user rows in id order before touching balances. Mutual
	// claims (A claiming B's code while B claims A's) would otherwise
	// acquire the two row locks in opposite order and deadlock.
	if _, err := tx.Exec(ctx,
		`SELECT id FROM users WHERE id IN ($1, $2) ORDER BY id FOR UPDATE`,
		claimantID, referrerID,
	); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET referred_by = $1 WHERE id = $2 AND referred_by IS NULL`,
		referrerID, claimantID,
	); err != nil {
		return nil, err
	}

	claimant, err := repository.ScanUser(tx.QueryRow(ctx,
		`UPDATE users SET total_coins = total_coins + $1 WHERE id = $2
		 RETURNING `+repository.UserColumns,
		s.referredBonus, claimantID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users
		 SET total_coins = total_coins + $1,
		     total_referrals = total_referrals + 1
		 WHERE id = $2`,
		s.referrerBonus, referrerID,
	); err != nil {
		return nil, err
	}

	meta := map[string]interface{}{"code": code}
	if err := s.transactionRepo.CreateWithTx(ctx, tx, &domain.Transaction{
		UserID: claimantID,
		Type:   domain.TxTypeReferralBonus,
		Amount: s.referredBonus,
		Meta:   meta,
	}); err != nil {
		return nil, err
	}
	if err := s.transactionRepo.CreateWithTx(ctx, tx, &domain.Transaction{
		UserID: referrerID,
		Type:   domain.TxTypeReferralReward,
		Amount: s.referrerBonus,
		Meta:   map[string]interface{}{"referred_id": claimantID},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	observeCredit(domain.TxTypeReferralBonus, s.referredBonus)
	observeCredit(domain.TxTypeReferralReward, s.referrerBonus)

	return &ClaimResult{
		Claimant:      claimant,
		ReferrerID:    referrerID,
		ReferredBonus: s.referredBonus,
		ReferrerBonus: s.referrerBonus,
	}, nil
}

// Stats returns the referrer's totals plus their referral list.
func (s *ReferralService) Stats(ctx context.Context, userID string) (*domain.ReferralStats, []domain.Referral, error) {
	stats, err := s.referralRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	referrals, err := s.referralRepo.GetByReferrer(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return stats, referrals, nil
}
