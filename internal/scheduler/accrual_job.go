package scheduler

import (
	"context"
	"time"

	"ekehi_backend/internal/logger"
	"ekehi_backend/internal/service"

	"github.com/robfig/cron/v3"
)

// AccrualScheduler periodically settles auto-mining accrual for every
// account with a nonzero rate, so balances (and the leaderboard built from
// them) stay fresh even for users who never hit a read endpoint.
type AccrualScheduler struct {
	cron    *cron.Cron
	accrual *service.AccrualService
	spec    string
}

func NewAccrualScheduler(accrual *service.AccrualService, spec string) *AccrualScheduler {
	return &AccrualScheduler{
		cron:    cron.New(),
		accrual: accrual,
		spec:    spec,
	}
}

func (s *AccrualScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.sweep)
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("accrual sweep scheduler started", "spec", s.spec)
	return nil
}

func (s *AccrualScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("accrual sweep scheduler stopped")
}

func (s *AccrualScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	credited, err := s.accrual.SweepAll(ctx)
	if err != nil {
		logger.Error("accrual sweep failed", "error", err)
		return
	}
	if credited > 0 {
		logger.Info("accrual sweep finished", "credited_accounts", credited)
	}
}
