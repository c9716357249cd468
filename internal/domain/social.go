package domain

import "time"

// VerificationMethod says how a social task completion is confirmed.
type VerificationMethod string

const (
	VerificationAuto   VerificationMethod = "auto"
	VerificationManual VerificationMethod = "manual"
)

// TaskStatus is the per-(user, task) state machine:
// not_started -> pending -> completed -> verified for manual tasks,
// with completed terminal (and crediting) for auto-verified tasks.
type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "not_started"
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusVerified   TaskStatus = "verified"
)

// SocialTask is a catalog entry. The catalog is externally managed content;
// this service only tracks per-user completion state against task ids.
type SocialTask struct {
	ID                 string             `db:"id" json:"id"`
	Title              string             `db:"title" json:"title"`
	Description        string             `db:"description" json:"description"`
	Platform           string             `db:"platform" json:"platform"`
	ActionURL          string             `db:"action_url" json:"action_url"`
	RewardCoins        float64            `db:"reward_coins" json:"reward_coins"`
	VerificationMethod VerificationMethod `db:"verification_method" json:"verification_method"`
	IsActive           bool               `db:"is_active" json:"is_active"`
	SortOrder          int                `db:"sort_order" json:"sort_order"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
}

// UserSocialTask is one user's progress on one task.
type UserSocialTask struct {
	ID          int64      `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	TaskID      string     `db:"task_id" json:"task_id"`
	Status      TaskStatus `db:"status" json:"status"`
	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	VerifiedAt  *time.Time `db:"verified_at" json:"verified_at,omitempty"`
}

// Terminal reports whether the task reached its crediting state, i.e. the
// reward is already paid and further transitions are no-ops.
func (ut *UserSocialTask) Terminal(method VerificationMethod) bool {
	if ut.Status == TaskStatusVerified {
		return true
	}
	return method == VerificationAuto && ut.Status == TaskStatusCompleted
}

// TaskWithProgress merges a catalog entry with the caller's progress.
type TaskWithProgress struct {
	Task        *SocialTask `json:"task"`
	Status      TaskStatus  `json:"status"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	VerifiedAt  *time.Time  `json:"verified_at,omitempty"`
}
