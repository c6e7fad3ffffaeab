package service

import (
	"log/slog"
	"time"

	"github.com/harborworks/gatehouse/internal/auth/ratelimit"
)

// HousekeepingService periodically prunes idle rate limiter entries so
// the in-memory table does not grow with every client key ever seen.
// The cache carries its own TTLs, so blacklist and session records need
// no sweeping here.
type HousekeepingService struct {
	Limiter  *ratelimit.Limiter
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the service. An interval of 0 or less
// defaults to 10 minutes.
func NewHousekeepingService(limiter *ratelimit.Limiter, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &HousekeepingService{
		Limiter:  limiter,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut
// it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker and blocks until any in-progress sweep
// finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := s.Limiter.Prune()
			s.Logger.Debug("rate limiter pruned",
				"removed", removed,
				"remaining", s.Limiter.Len(),
			)
		case <-s.stopCh:
			return
		}
	}
}
