package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Runner is one unit of periodic work.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler drives a Runner on a fixed interval until the context is
// cancelled. A failing run is logged and does not stop the loop.
type Scheduler struct {
	name     string
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
}

func New(name string, runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		name:     name,
		runner:   runner,
		interval: interval,
		logger:   logger.With("scheduler", name),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if err := s.runner.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("run failed", "error", err)
	}
}
