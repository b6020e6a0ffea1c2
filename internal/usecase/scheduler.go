package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
)

// Scheduler wires the daily driver with the digest pipeline.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	opts     DigestOptions
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring digest runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, opts DigestOptions, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, opts: opts, logger: logger}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		result, err := s.pipeline.RunDigest(ctx, trigger, s.opts)
		if err != nil {
			s.logger.Error("scheduled digest failed", "error", err)
			return
		}
		s.logger.Info("scheduled digest done", "stored", result.Stored, "path", result.OutputPath)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
