package repository

import (
	"context"

	"ekehi_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `id, user_id, started_at, duration_seconds, claimed, claimed_at, created_at`

type MiningRepository struct {
	db *pgxpool.Pool
}

func NewMiningRepository(db *pgxpool.Pool) *MiningRepository {
	return &MiningRepository{db: db}
}

func scanSession(row pgx.Row) (*domain.MiningSession, error) {
	var s domain.MiningSession
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.StartedAt,
		&s.DurationSeconds,
		&s.Claimed,
		&s.ClaimedAt,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetActive returns the user's unclaimed session, or pgx.ErrNoRows.
func (r *MiningRepository) GetActive(ctx context.Context, userID string) (*domain.MiningSession, error) {
	return scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM mining_sessions
		 WHERE user_id = $1 AND NOT claimed`,
		userID))
}

// Create inserts a new active session. The partial unique index on
// (user_id) WHERE NOT claimed makes a second concurrent start fail with a
// unique violation, which the service maps to the conflict error.
func (r *MiningRepository) Create(ctx context.Context, s *domain.MiningSession) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO mining_sessions (id, user_id, started_at, duration_seconds)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		s.ID, s.UserID, s.StartedAt, s.DurationSeconds,
	).Scan(&s.CreatedAt)
}
