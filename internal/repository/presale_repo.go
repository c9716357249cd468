package repository

import (
	"context"

	"ekehi_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const purchaseColumns = `id, user_id, amount_usd, token_price, tokens_amount,
	payment_method, status, created_at, finalized_at`

type PresaleRepository struct {
	db *pgxpool.Pool
}

func NewPresaleRepository(db *pgxpool.Pool) *PresaleRepository {
	return &PresaleRepository{db: db}
}

func scanPurchase(row pgx.Row) (*domain.PresalePurchase, error) {
	var p domain.PresalePurchase
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.AmountUSD,
		&p.TokenPrice,
		&p.TokensAmount,
		&p.PaymentMethod,
		&p.Status,
		&p.CreatedAt,
		&p.FinalizedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PresaleRepository) Create(ctx context.Context, p *domain.PresalePurchase) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO presale_purchases
			(id, user_id, amount_usd, token_price, tokens_amount, payment_method, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		p.ID, p.UserID, p.AmountUSD, p.TokenPrice, p.TokensAmount, p.PaymentMethod, p.Status,
	).Scan(&p.CreatedAt)
}

func (r *PresaleRepository) GetByID(ctx context.Context, id string) (*domain.PresalePurchase, error) {
	return scanPurchase(r.db.QueryRow(ctx,
		`SELECT `+purchaseColumns+` FROM presale_purchases WHERE id = $1`, id))
}

// GetByUser returns the user's purchase history, newest first.
func (r *PresaleRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*domain.PresalePurchase, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+purchaseColumns+`
		 FROM presale_purchases
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.PresalePurchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
