package service

import (
	"context"
	"errors"

	"ekehi_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LeaderboardService builds the ranked snapshot at query time. Ties on
// total_coins break by created_at ascending then id, so the earliest
// account wins the tie and the ordering is total and deterministic.
type LeaderboardService struct {
	db *pgxpool.Pool
}

func NewLeaderboardService(db *pgxpool.Pool) *LeaderboardService {
	return &LeaderboardService{db: db}
}

const rankOrder = `ORDER BY total_coins DESC, created_at ASC, id ASC`

// Top returns the first limit entries of the ranking.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, COALESCE(username, ''), total_coins, coins_per_second, current_streak, total_referrals
		 FROM users `+rankOrder+`
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.LeaderboardEntry, 0, limit)
	rank := 1
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.TotalCoins, &e.MiningPower, &e.CurrentStreak, &e.TotalReferrals); err != nil {
			return nil, err
		}
		e.Rank = rank
		e.Tier = domain.TierForRank(rank)
		entries = append(entries, e)
		rank++
	}
	return entries, rows.Err()
}

// MyRank returns the caller's own entry, including positions beyond the
// visible top list.
func (s *LeaderboardService) MyRank(ctx context.Context, userID string) (*domain.LeaderboardEntry, error) {
	var e domain.LeaderboardEntry
	err := s.db.QueryRow(ctx, `
		WITH ranked AS (
			SELECT id, COALESCE(username, '') AS username, total_coins, coins_per_second,
			       current_streak, total_referrals,
			       ROW_NUMBER() OVER (`+rankOrder+`) AS rank
			FROM users
		)
		SELECT rank, id, username, total_coins, coins_per_second, current_streak, total_referrals
		FROM ranked WHERE id = $1`,
		userID,
	).Scan(&e.Rank, &e.UserID, &e.Username, &e.TotalCoins, &e.MiningPower, &e.CurrentStreak, &e.TotalReferrals)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	e.Tier = domain.TierForRank(e.Rank)
	return &e, nil
}
