package domain

import (
	"testing"
	"time"
)

func newSession(start time.Time) *MiningSession {
	return &MiningSession{
		ID:              "s1",
		UserID:          "u1",
		StartedAt:       start,
		DurationSeconds: 86400,
	}
}

func TestSessionRemaining(t *testing.T) {
	start := time.Now()
	s := newSession(start)

	if got := s.Remaining(start); got != 86400 {
		t.Fatalf("remaining at start = %d, want 86400", got)
	}
	if got := s.Remaining(start.Add(12 * time.Hour)); got != 43200 {
		t.Fatalf("remaining at half = %d, want 43200", got)
	}
	if got := s.Remaining(start.Add(24 * time.Hour)); got != 0 {
		t.Fatalf("remaining at end = %d, want 0", got)
	}
	if got := s.Remaining(start.Add(48 * time.Hour)); got != 0 {
		t.Fatalf("remaining past end = %d, want 0", got)
	}
}

func TestSessionProgressClamped(t *testing.T) {
	start := time.Now()
	s := newSession(start)

	if got := s.Progress(start.Add(-time.Hour)); got != 0 {
		t.Fatalf("progress before start = %f, want 0", got)
	}
	got := s.Progress(start.Add(6 * time.Hour))
	if got < 0.249 || got > 0.251 {
		t.Fatalf("progress at quarter = %f, want ~0.25", got)
	}
	if got := s.Progress(start.Add(30 * time.Hour)); got != 1 {
		t.Fatalf("progress past end = %f, want 1", got)
	}
}

func TestSessionState(t *testing.T) {
	start := time.Now()
	s := newSession(start)

	if got := s.State(start.Add(time.Hour)); got != SessionStateActive {
		t.Fatalf("state mid-session = %s, want active", got)
	}
	if got := s.State(start.Add(25 * time.Hour)); got != SessionStateClaimable {
		t.Fatalf("state after duration = %s, want claimable", got)
	}

	s.Claimed = true
	if got := s.State(start.Add(time.Hour)); got != SessionStateIdle {
		t.Fatalf("state after claim = %s, want idle", got)
	}
}
