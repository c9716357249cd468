package domain

import "time"

// SessionState is the logical state of a mining session. Active and
// Claimable are computed from started_at and wall-clock time, never stored,
// so multiple devices can't drift apart on the countdown.
type SessionState string

const (
	SessionStateIdle      SessionState = "idle"
	SessionStateActive    SessionState = "active"
	SessionStateClaimable SessionState = "claimable"
)

// MiningSession is one 24-hour mining cycle. A user has at most one
// unclaimed session at a time.
type MiningSession struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"user_id"`
	StartedAt       time.Time  `db:"started_at" json:"started_at"`
	DurationSeconds int64      `db:"duration_seconds" json:"duration_seconds"`
	Claimed         bool       `db:"claimed" json:"claimed"`
	ClaimedAt       *time.Time `db:"claimed_at" json:"claimed_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Remaining returns seconds until the session becomes claimable.
func (s *MiningSession) Remaining(now time.Time) int64 {
	elapsed := int64(now.Sub(s.StartedAt).Seconds())
	if elapsed >= s.DurationSeconds {
		return 0
	}
	return s.DurationSeconds - elapsed
}

// Progress returns the elapsed fraction of the session, clamped to [0, 1].
func (s *MiningSession) Progress(now time.Time) float64 {
	if s.DurationSeconds <= 0 {
		return 1
	}
	p := now.Sub(s.StartedAt).Seconds() / float64(s.DurationSeconds)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// State reports the logical state at the given instant.
func (s *MiningSession) State(now time.Time) SessionState {
	if s.Claimed {
		return SessionStateIdle
	}
	if s.Remaining(now) > 0 {
		return SessionStateActive
	}
	return SessionStateClaimable
}

// MiningStatus is the read-model returned to clients polling the countdown.
type MiningStatus struct {
	State            SessionState `json:"state"`
	StartedAt        *time.Time   `json:"started_at,omitempty"`
	DurationSeconds  int64        `json:"duration_seconds,omitempty"`
	RemainingSeconds int64        `json:"remaining_seconds"`
	Progress         float64      `json:"progress"`
	SessionReward    float64      `json:"session_reward"`
}
