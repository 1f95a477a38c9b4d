// Package jobs runs the background maintenance schedule.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"bigspin/internal/middleware"
	"bigspin/internal/service"

	"github.com/go-co-op/gocron/v2"
)

// Sweeper periodically deactivates giveaways that are past their end time so
// their active flag never lags the clock by more than a sweep interval.
type Sweeper struct {
	giveaways *service.GiveawayService
	scheduler gocron.Scheduler
}

// NewSweeper returns a sweeper bound to the giveaway service.
func NewSweeper(giveaways *service.GiveawayService) *Sweeper {
	return &Sweeper{giveaways: giveaways}
}

// Start begins the one-minute sweep loop.
func (s *Sweeper) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	s.scheduler = sched

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(s.sweep),
	)
	if err != nil {
		return err
	}

	sched.Start()
	return nil
}

// Stop shuts the scheduler down and waits for a running sweep to finish.
func (s *Sweeper) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.giveaways.DeactivateEnded(ctx); err != nil {
		middleware.Logger.ErrorContext(ctx, "giveaway sweep failed", slog.Any("error", err))
	}
}
