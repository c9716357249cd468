package repository

import (
	"context"

	"ekehi_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, title, description, platform, action_url, reward_coins,
	verification_method, is_active, sort_order, created_at`

type SocialRepository struct {
	db *pgxpool.Pool
}

func NewSocialRepository(db *pgxpool.Pool) *SocialRepository {
	return &SocialRepository{db: db}
}

func scanTask(row pgx.Row) (*domain.SocialTask, error) {
	var t domain.SocialTask
	if err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Platform,
		&t.ActionURL,
		&t.RewardCoins,
		&t.VerificationMethod,
		&t.IsActive,
		&t.SortOrder,
		&t.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetActiveTasks returns the externally managed catalog.
func (r *SocialRepository) GetActiveTasks(ctx context.Context) ([]*domain.SocialTask, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+taskColumns+`
		 FROM social_tasks
		 WHERE is_active = true
		 ORDER BY sort_order, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.SocialTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *SocialRepository) GetTaskByID(ctx context.Context, id string) (*domain.SocialTask, error) {
	return scanTask(r.db.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM social_tasks WHERE id = $1`, id))
}

// GetUserTask returns the user's progress row, or pgx.ErrNoRows when the
// task was never started (logical not_started state).
func (r *SocialRepository) GetUserTask(ctx context.Context, userID, taskID string) (*domain.UserSocialTask, error) {
	var ut domain.UserSocialTask
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, task_id, status, started_at, completed_at, verified_at
		 FROM user_social_tasks
		 WHERE user_id = $1 AND task_id = $2`,
		userID, taskID,
	).Scan(&ut.ID, &ut.UserID, &ut.TaskID, &ut.Status, &ut.StartedAt, &ut.CompletedAt, &ut.VerifiedAt)
	if err != nil {
		return nil, err
	}
	return &ut, nil
}

// GetUserTasks returns all progress rows for a user keyed by task id.
func (r *SocialRepository) GetUserTasks(ctx context.Context, userID string) (map[string]*domain.UserSocialTask, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, task_id, status, started_at, completed_at, verified_at
		 FROM user_social_tasks
		 WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]*domain.UserSocialTask)
	for rows.Next() {
		var ut domain.UserSocialTask
		if err := rows.Scan(&ut.ID, &ut.UserID, &ut.TaskID, &ut.Status, &ut.StartedAt, &ut.CompletedAt, &ut.VerifiedAt); err != nil {
			return nil, err
		}
		result[ut.TaskID] = &ut
	}
	return result, rows.Err()
}
