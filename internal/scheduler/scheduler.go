// Package scheduler re-renders cards on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher re-renders every card from the current snapshot.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs Refresh on a standard five-field cron schedule in the card
// time zone.
type Scheduler struct {
	cron    *cron.Cron
	target  Refresher
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Scheduler. The schedule is validated here so a bad schedule
// fails at startup.
func New(schedule string, loc *time.Location, target Refresher, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		target:  target,
		timeout: 30 * time.Second,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("schedule refresh %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.logger.Info("refresh scheduler started")
	s.cron.Start()
}

// Stop prevents further runs and waits for a running refresh to finish or
// for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("refresh still running at shutdown")
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Debug("scheduled refresh running")
	if err := s.target.Refresh(ctx); err != nil {
		s.logger.Error("scheduled refresh failed", "error", err)
	}
}
