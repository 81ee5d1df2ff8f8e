package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"cartpod/internal/service"
)

const sweepTimeout = 30 * time.Second

// ResetTokenSweeper periodically clears password reset tokens that expired
// without being used.
type ResetTokenSweeper struct {
	cron   *cron.Cron
	resets service.PasswordResetService
	log    logrus.FieldLogger
}

// NewResetTokenSweeper schedules the sweep with a standard cron expression or
// descriptor such as "@hourly". The job does not run until Start.
func NewResetTokenSweeper(schedule string, resets service.PasswordResetService, log logrus.FieldLogger) (*ResetTokenSweeper, error) {
	s := &ResetTokenSweeper{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		resets: resets,
		log:    log.WithField("job", "reset_token_sweeper"),
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *ResetTokenSweeper) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish or ctx to end.
func (s *ResetTokenSweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("shutdown while sweep still running")
	}
}

// RunOnce performs a single sweep.
func (s *ResetTokenSweeper) RunOnce(ctx context.Context) (int64, error) {
	cleared, err := s.resets.SweepExpired(ctx)
	if err != nil {
		return 0, err
	}
	if cleared > 0 {
		s.log.WithField("cleared", cleared).Info("expired reset tokens cleared")
	}
	return cleared, nil
}

func (s *ResetTokenSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.log.WithError(err).Error("reset token sweep failed")
	}
}
