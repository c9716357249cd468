package repository

import (
	"context"
	"time"

	"ekehi_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserColumns is the select list shared by every query that loads a full
// user row, including the atomic credit statements in internal/service.
const UserColumns = `id, COALESCE(username, ''), total_coins, coins_per_second,
	current_streak, longest_streak, total_referrals, COALESCE(referral_code, ''),
	referred_by, last_ad_bonus_at, last_claim_at, last_accrual_at, last_login_at, created_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// ScanUser scans a row selected with UserColumns.
func ScanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.TotalCoins,
		&u.CoinsPerSecond,
		&u.CurrentStreak,
		&u.LongestStreak,
		&u.TotalReferrals,
		&u.ReferralCode,
		&u.ReferredBy,
		&u.LastAdBonusAt,
		&u.LastClaimAt,
		&u.LastAccrualAt,
		&u.LastLoginAt,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return ScanUser(r.db.QueryRow(ctx,
		`SELECT `+UserColumns+` FROM users WHERE id = $1`, id))
}

// GetOrCreate inserts the account row on first login. The referral code is
// issued here and never changes afterwards.
func (r *UserRepository) GetOrCreate(ctx context.Context, id, username, referralCode string) (*domain.User, bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO users (id, username, referral_code)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		id, username, referralCode,
	)
	if err != nil {
		return nil, false, err
	}

	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return u, tag.RowsAffected() > 0, nil
}

// TouchLogin records the last seen time; drift here is harmless so the
// write is unconditional.
func (r *UserRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET last_login_at = $1 WHERE id = $2`, at, id)
	return err
}
