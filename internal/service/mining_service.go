package service

import (
	"context"
	"errors"
	"time"

	"ekehi_backend/internal/domain"
	"ekehi_backend/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MiningService owns the 24-hour mining cycle and the ad-bonus cooldown.
// The countdown itself is stateless: only the boundary events (start, claim)
// touch the store.
type MiningService struct {
	db              *pgxpool.Pool
	miningRepo      *repository.MiningRepository
	transactionRepo *repository.TransactionRepository
	accrual         *AccrualService

	sessionDuration time.Duration
	sessionReward   float64
	streakWindow    time.Duration
	adBonusReward   float64
	adBonusCooldown time.Duration
}

func NewMiningService(db *pgxpool.Pool, sessionDuration time.Duration, sessionReward float64,
	streakWindow time.Duration, adBonusReward float64, adBonusCooldown time.Duration) *MiningService {
	return &MiningService{
		db:              db,
		miningRepo:      repository.NewMiningRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		accrual:         NewAccrualService(db),
		sessionDuration: sessionDuration,
		sessionReward:   sessionReward,
		streakWindow:    streakWindow,
		adBonusReward:   adBonusReward,
		adBonusCooldown: adBonusCooldown,
	}
}

// StartSession begins a new mining cycle. A second start while a session is
// unclaimed fails with ErrSessionActive (enforced by the store's partial
// unique index, so concurrent starts from two devices cannot both win).
func (s *MiningService) StartSession(ctx context.Context, userID string) (*domain.MiningSession, error) {
	session := &domain.MiningSession{
		ID:              uuid.NewString(),
		UserID:          userID,
		StartedAt:       time.Now().UTC(),
		DurationSeconds: int64(s.sessionDuration.Seconds()),
	}

	if err := s.miningRepo.Create(ctx, session); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSessionActive
		}
		if isForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return session, nil
}

// GetStatus reports the countdown as a pure function of started_at and the
// wall clock. No session row means Idle.
func (s *MiningService) GetStatus(ctx context.Context, userID string) (*domain.MiningStatus, error) {
	session, err := s.miningRepo.GetActive(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.MiningStatus{
				State:         domain.SessionStateIdle,
				SessionReward: s.sessionReward,
			}, nil
		}
		return nil, err
	}

	now := time.Now().UTC()
	return &domain.MiningStatus{
		State:            session.State(now),
		StartedAt:        &session.StartedAt,
		DurationSeconds:  session.DurationSeconds,
		RemainingSeconds: session.Remaining(now),
		Progress:         session.Progress(now),
		SessionReward:    s.sessionReward,
	}, nil
}

// ClaimSession credits the fixed cycle reward exactly once per session. The
// claimed flag is checked and set in a single UPDATE, so a duplicated or
// retried claim finds no claimable row and fails with ErrNotClaimable
// instead of crediting twice.
func (s *MiningService) ClaimSession(ctx context.Context, userID string) (*domain.User, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var sessionID string
	err = tx.QueryRow(ctx,
		`UPDATE mining_sessions
		 SET claimed = true, claimed_at = NOW()
		 WHERE user_id = $1
		   AND NOT claimed
		   AND started_at + make_interval(secs => duration_seconds) <= NOW()
		 RETURNING id`,
		userID,
	).Scan(&sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotClaimable
		}
		return nil, err
	}

	// Settle auto-mining first so the streak/claim update sees a fresh
	// accrual cursor.
	if _, err := s.accrual.CatchUpTx(ctx, tx, userID); err != nil {
		return nil, err
	}

	var (
		currentStreak int
		lastClaimAt   *time.Time
	)
	err = tx.QueryRow(ctx,
		`SELECT current_streak, last_claim_at FROM users WHERE id = $1 FOR UPDATE`,
		userID,
	).Scan(&currentStreak, &lastClaimAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	streak := domain.NextStreak(currentStreak, lastClaimAt, time.Now().UTC(), s.streakWindow)

	user, err := repository.ScanUser(tx.QueryRow(ctx,
		`UPDATE users
		 SET total_coins = total_coins + $1,
		     current_streak = $2,
		     longest_streak = GREATEST(longest_streak, $2),
		     last_claim_at = NOW()
		 WHERE id = $3
		 RETURNING `+repository.UserColumns,
		s.sessionReward, streak, userID,
	))
	if err != nil {
		return nil, err
	}

	if err := s.transactionRepo.CreateWithTx(ctx, tx, &domain.Transaction{
		UserID: userID,
		Type:   domain.TxTypeMiningClaim,
		Amount: s.sessionReward,
		Meta:   map[string]interface{}{"session_id": sessionID, "streak": streak},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	observeCredit(domain.TxTypeMiningClaim, s.sessionReward)
	return user, nil
}

// ClaimAdBonus credits the ad reward unless the cooldown window is still
// open. The window check is folded into the UPDATE, making retries safe.
func (s *MiningService) ClaimAdBonus(ctx context.Context, userID string) (*domain.User, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user, err := repository.ScanUser(tx.QueryRow(ctx,
		`UPDATE users
		 SET total_coins = total_coins + $1,
		     last_ad_bonus_at = NOW()
		 WHERE id = $2
		   AND (last_ad_bonus_at IS NULL OR last_ad_bonus_at <= NOW() - make_interval(secs => $3::double precision))
		 RETURNING `+repository.UserColumns,
		s.adBonusReward, userID, s.adBonusCooldown.Seconds(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			_ = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
			if !exists {
				return nil, ErrUserNotFound
			}
			return nil, ErrCooldownActive
		}
		return nil, err
	}

	if err := s.transactionRepo.CreateWithTx(ctx, tx, &domain.Transaction{
		UserID: userID,
		Type:   domain.TxTypeAdBonus,
		Amount: s.adBonusReward,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	observeCredit(domain.TxTypeAdBonus, s.adBonusReward)
	return user, nil
}
