package service

import (
	"context"
	"errors"

	"ekehi_backend/internal/domain"
	"ekehi_backend/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SocialService tracks per-(user, task) completion state and credits the
// task reward exactly once, at the transition into the terminal state.
// Transitions on a task already in its terminal state are no-ops returning
// the current row, so flaky clients can retry freely.
type SocialService struct {
	db              *pgxpool.Pool
	socialRepo      *repository.SocialRepository
	transactionRepo *repository.TransactionRepository
}

func NewSocialService(db *pgxpool.Pool) *SocialService {
	return &SocialService{
		db:              db,
		socialRepo:      repository.NewSocialRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

func (s *SocialService) getTask(ctx context.Context, taskID string) (*domain.SocialTask, error) {
	task, err := s.socialRepo.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// StartTask records intent to perform the task (not_started -> pending).
// Starting an already started task just returns the current row.
func (s *SocialService) StartTask(ctx context.Context, userID, taskID string) (*domain.UserSocialTask, error) {
	if _, err := s.getTask(ctx, taskID); err != nil {
		return nil, err
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO user_social_tasks (user_id, task_id, status, started_at)
		 VALUES ($1, $2, 'pending', NOW())
		 ON CONFLICT (user_id, task_id) DO NOTHING`,
		userID, taskID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.socialRepo.GetUserTask(ctx, userID, taskID)
}

// CompleteTask moves pending -> completed. For auto-verified tasks this is
// the crediting transition; for manual tasks it only records the user's
// self-report and the reward waits for VerifyTask.
func (s *SocialService) CompleteTask(ctx context.Context, userID, taskID string) (*domain.UserSocialTask, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.VerificationMethod == domain.VerificationAuto {
		return s.completeAndCredit(ctx, userID, task)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE user_social_tasks
		 SET status = 'completed', completed_at = NOW()
		 WHERE user_id = $1 AND task_id = $2 AND status = 'pending'`,
		userID, taskID,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return s.settleOrReject(ctx, userID, task)
	}
	return s.socialRepo.GetUserTask(ctx, userID, taskID)
}

// VerifyTask moves completed -> verified and credits the reward. For
// auto-verified tasks the complete and verify steps are merged, so a
// pending auto task verifies in one call.
func (s *SocialService) VerifyTask(ctx context.Context, userID, taskID string) (*domain.UserSocialTask, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.VerificationMethod == domain.VerificationAuto {
		return s.completeAndCredit(ctx, userID, task)
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The status guard in the WHERE clause is the exactly-once gate: a
	// second verify matches nothing and credits nothing.
	tag, err := tx.Exec(ctx,
		`UPDATE user_social_tasks
		 SET status = 'verified', verified_at = NOW()
		 WHERE user_id = $1 AND task_id = $2 AND status = 'completed'`,
		userID, taskID,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return s.settleOrReject(ctx, userID, task)
	}

	if err := s.creditRewardTx(ctx, tx, userID, task); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	observeCredit(domain.TxTypeTaskReward, task.RewardCoins)
	return s.socialRepo.GetUserTask(ctx, userID, taskID)
}

// completeAndCredit performs the merged crediting transition for
// auto-verified tasks (pending -> verified).
func (s *SocialService) completeAndCredit(ctx context.Context, userID string, task *domain.SocialTask) (*domain.UserSocialTask, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE user_social_tasks
		 SET status = 'verified', completed_at = COALESCE(completed_at, NOW()), verified_at = NOW()
		 WHERE user_id = $1 AND task_id = $2 AND status IN ('pending', 'completed')`,
		userID, task.ID,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return s.settleOrReject(ctx, userID, task)
	}

	if err := s.creditRewardTx(ctx, tx, userID, task); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	observeCredit(domain.TxTypeTaskReward, task.RewardCoins)
	return s.socialRepo.GetUserTask(ctx, userID, task.ID)
}

func (s *SocialService) creditRewardTx(ctx context.Context, tx pgx.Tx, userID string, task *domain.SocialTask) error {
	if _, err := tx.Exec(ctx,
		`UPDATE users SET total_coins = total_coins + $1 WHERE id = $2`,
		task.RewardCoins, userID,
	); err != nil {
		return err
	}
	return s.transactionRepo.CreateWithTx(ctx, tx, &domain.Transaction{
		UserID: userID,
		Type:   domain.TxTypeTaskReward,
		Amount: task.RewardCoins,
		Meta:   map[string]interface{}{"task_id": task.ID},
	})
}

// settleOrReject resolves a transition that matched no rows: a terminal
// task is an idempotent no-op, anything else is an illegal transition.
func (s *SocialService) settleOrReject(ctx context.Context, userID string, task *domain.SocialTask) (*domain.UserSocialTask, error) {
	ut, err := s.socialRepo.GetUserTask(ctx, userID, task.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskState
		}
		return nil, err
	}
	if ut.Terminal(task.VerificationMethod) {
		return ut, nil
	}
	return nil, ErrTaskState
}

// ListWithProgress merges the active catalog with the caller's progress.
// Tasks with no progress row report not_started.
func (s *SocialService) ListWithProgress(ctx context.Context, userID string) ([]domain.TaskWithProgress, error) {
	tasks, err := s.socialRepo.GetActiveTasks(ctx)
	if err != nil {
		return nil, err
	}
	progress, err := s.socialRepo.GetUserTasks(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.TaskWithProgress, 0, len(tasks))
	for _, task := range tasks {
		twp := domain.TaskWithProgress{
			Task:   task,
			Status: domain.TaskStatusNotStarted,
		}
		if ut, ok := progress[task.ID]; ok {
			twp.Status = ut.Status
			twp.CompletedAt = ut.CompletedAt
			twp.VerifiedAt = ut.VerifiedAt
		}
		result = append(result, twp)
	}
	return result, nil
}

// ListTasks returns the raw catalog.
func (s *SocialService) ListTasks(ctx context.Context) ([]*domain.SocialTask, error) {
	return s.socialRepo.GetActiveTasks(ctx)
}
