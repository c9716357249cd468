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

// PresaleService records token purchases and drives the auto-mining rate.
// The payment gateway reports the outcome asynchronously through
// MarkCompleted/MarkFailed; both are exactly-once transitions.
type PresaleService struct {
	db          *pgxpool.Pool
	presaleRepo *repository.PresaleRepository
	accrual     *AccrualService

	tokenPriceUSD  float64
	minPurchaseUSD float64
}

func NewPresaleService(db *pgxpool.Pool, tokenPriceUSD, minPurchaseUSD float64) *PresaleService {
	return &PresaleService{
		db:             db,
		presaleRepo:    repository.NewPresaleRepository(db),
		accrual:        NewAccrualService(db),
		tokenPriceUSD:  tokenPriceUSD,
		minPurchaseUSD: minPurchaseUSD,
	}
}

// Submit validates the amount, snapshots the current token price and
// records a pending purchase for the gateway to settle.
func (s *PresaleService) Submit(ctx context.Context, userID string, amountUSD float64, paymentMethod string) (*domain.PresalePurchase, error) {
	if amountUSD <= 0 {
		return nil, ErrInvalidAmount
	}
	if amountUSD < s.minPurchaseUSD {
		return nil, ErrBelowMinimum
	}

	purchase := &domain.PresalePurchase{
		ID:            uuid.NewString(),
		UserID:        userID,
		AmountUSD:     amountUSD,
		TokenPrice:    s.tokenPriceUSD,
		TokensAmount:  amountUSD / s.tokenPriceUSD,
		PaymentMethod: paymentMethod,
		Status:        domain.PurchaseStatusPending,
	}

	if err := s.presaleRepo.Create(ctx, purchase); err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return purchase, nil
}

// MarkCompleted finalizes a pending purchase and recomputes the owner's
// auto-mining rate in the same transaction. A repeat call finds no pending
// row and fails with ErrAlreadyFinalized.
func (s *PresaleService) MarkCompleted(ctx context.Context, purchaseID string) (*domain.PresalePurchase, float64, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	purchase, err := s.finalizeTx(ctx, tx, purchaseID, domain.PurchaseStatusCompleted)
	if err != nil {
		return nil, 0, err
	}

	rate, err := s.accrual.RecomputeRateTx(ctx, tx, purchase.UserID)
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return purchase, rate, nil
}

// MarkFailed finalizes a pending purchase as failed. Failed purchases never
// contribute to the rate, so no recompute is needed.
func (s *PresaleService) MarkFailed(ctx context.Context, purchaseID string) (*domain.PresalePurchase, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	purchase, err := s.finalizeTx(ctx, tx, purchaseID, domain.PurchaseStatusFailed)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return purchase, nil
}

func (s *PresaleService) finalizeTx(ctx context.Context, tx pgx.Tx, purchaseID string, status domain.PurchaseStatus) (*domain.PresalePurchase, error) {
	var (
		p           domain.PresalePurchase
		finalizedAt time.Time
	)
	err := tx.QueryRow(ctx,
		`UPDATE presale_purchases
		 SET status = $2, finalized_at = NOW()
		 WHERE id = $1 AND status = 'pending'
		 RETURNING id, user_id, amount_usd, token_price, tokens_amount, payment_method, status, created_at, finalized_at`,
		purchaseID, status,
	).Scan(&p.ID, &p.UserID, &p.AmountUSD, &p.TokenPrice, &p.TokensAmount, &p.PaymentMethod, &p.Status, &p.CreatedAt, &finalizedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			_ = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM presale_purchases WHERE id = $1)`, purchaseID).Scan(&exists)
			if !exists {
				return nil, ErrPurchaseNotFound
			}
			return nil, ErrAlreadyFinalized
		}
		return nil, err
	}
	p.FinalizedAt = &finalizedAt
	return &p, nil
}

// History returns the user's purchases, newest first.
func (s *PresaleService) History(ctx context.Context, userID string, limit int) ([]*domain.PresalePurchase, error) {
	return s.presaleRepo.GetByUser(ctx, userID, limit)
}

// TokenPrice exposes the current snapshot price for client display.
func (s *PresaleService) TokenPrice() float64 { return s.tokenPriceUSD }

// MinPurchase exposes the configured purchase floor.
func (s *PresaleService) MinPurchase() float64 { return s.minPurchaseUSD }
