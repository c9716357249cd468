package service

import (
	"context"

	"ekehi_backend/internal/domain"
	"ekehi_backend/internal/logger"
	"ekehi_backend/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccrualService owns continuous auto-mining accrual and the derived
// coins_per_second rate. Accrual runs as lazy catch-up on reads plus a
// periodic sweep; both paths advance last_accrual_at in the same UPDATE as
// the credit, so an elapsed interval can never be credited twice.
type AccrualService struct {
	db              *pgxpool.Pool
	transactionRepo *repository.TransactionRepository
}

func NewAccrualService(db *pgxpool.Pool) *AccrualService {
	return &AccrualService{
		db:              db,
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

// catchUpSQL credits coins_per_second * elapsed and advances the accrual
// cursor atomically. The subquery locks the row and computes the delta
// against the pre-update cursor; the database clock is the only clock.
// The cursor moves even when the rate is zero, otherwise it would sit at
// account creation and the first rate change would pay out the account's
// whole idle lifetime at the new rate.
const catchUpSQL = `
	UPDATE users u
	SET total_coins = u.total_coins + GREATEST(due.delta, 0),
	    last_accrual_at = NOW()
	FROM (
		SELECT id, coins_per_second * EXTRACT(EPOCH FROM (NOW() - last_accrual_at)) AS delta
		FROM users
		WHERE id = $1
		FOR UPDATE
	) due
	WHERE u.id = due.id
	RETURNING GREATEST(due.delta, 0)`

// CatchUpTx applies any pending auto-mining credit inside the caller's
// transaction and returns the credited amount (0 when the user has no rate).
func (s *AccrualService) CatchUpTx(ctx context.Context, tx pgx.Tx, userID string) (float64, error) {
	var delta float64
	err := tx.QueryRow(ctx, catchUpSQL, userID).Scan(&delta)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	if delta == 0 {
		return 0, nil
	}

	if err := s.transactionRepo.CreateWithTx(ctx, tx, &domain.Transaction{
		UserID: userID,
		Type:   domain.TxTypeAutoMining,
		Amount: delta,
	}); err != nil {
		return 0, err
	}

	observeCredit(domain.TxTypeAutoMining, delta)
	return delta, nil
}

// CatchUp applies pending accrual in its own transaction.
func (s *AccrualService) CatchUp(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := s.CatchUpTx(ctx, tx, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RecomputeRateTx re-derives coins_per_second from the user's completed
// purchases. Pending accrual is settled first so the interval before the
// change is still paid at the old rate.
func (s *AccrualService) RecomputeRateTx(ctx context.Context, tx pgx.Tx, userID string) (float64, error) {
	if _, err := s.CatchUpTx(ctx, tx, userID); err != nil {
		return 0, err
	}

	var rate float64
	err := tx.QueryRow(ctx,
		`UPDATE users
		 SET coins_per_second = (
			SELECT COALESCE(SUM(tokens_amount), 0) / $2
			FROM presale_purchases
			WHERE user_id = $1 AND status = 'completed'
		 )
		 WHERE id = $1
		 RETURNING coins_per_second`,
		userID, domain.AutoMineUnitTokens,
	).Scan(&rate)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return rate, nil
}

// SweepAll settles pending accrual for every user with a nonzero rate and
// returns how many accounts were credited. SKIP LOCKED keeps the sweep from
// stalling behind per-user request transactions.
func (s *AccrualService) SweepAll(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		UPDATE users u
		SET total_coins = u.total_coins + due.delta,
		    last_accrual_at = NOW()
		FROM (
			SELECT id, coins_per_second * EXTRACT(EPOCH FROM (NOW() - last_accrual_at)) AS delta
			FROM users
			WHERE coins_per_second > 0
			FOR UPDATE SKIP LOCKED
		) due
		WHERE u.id = due.id AND due.delta > 0
		RETURNING u.id, due.delta`)
	if err != nil {
		return 0, err
	}

	type credit struct {
		userID string
		delta  float64
	}
	var credits []credit
	for rows.Next() {
		var c credit
		if err := rows.Scan(&c.userID, &c.delta); err != nil {
			rows.Close()
			return 0, err
		}
		credits = append(credits, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, c := range credits {
		if err := s.transactionRepo.CreateWithTx(ctx, tx, &domain.Transaction{
			UserID: c.userID,
			Type:   domain.TxTypeAutoMining,
			Amount: c.delta,
		}); err != nil {
			return 0, err
		}
		observeCredit(domain.TxTypeAutoMining, c.delta)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	if len(credits) > 0 {
		logger.Debug("auto-mining sweep credited accounts", "count", len(credits))
	}
	return len(credits), nil
}
