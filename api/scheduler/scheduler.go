package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bloomcart/storefront-api/verification"
)

// Scheduler handles periodic background jobs for the storefront
type Scheduler struct {
	cron  *cron.Cron
	codes *verification.Store
}

// New creates a new scheduler instance around the verification code store
func New(codes *verification.Store) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithLocation(time.UTC)),
		codes: codes,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Sweep expired verification codes so abandoned challenges do not
	// accumulate in memory
	_, err := s.cron.AddFunc("@every "+verification.SweepInterval.String(), s.sweepVerificationCodes)
	if err != nil {
		zap.S().Errorw("failed to register verification sweep job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("storefront scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("storefront scheduler stopped")
}

func (s *Scheduler) sweepVerificationCodes() {
	removed := s.codes.SweepExpired()
	if removed > 0 {
		zap.S().Infow("swept expired verification codes", "removed", removed)
	}
}
