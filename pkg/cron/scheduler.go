// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ChunkSweeper drops stalled chunked uploads.
type ChunkSweeper interface {
	SweepChunks() int
}

// MappingLoader reloads the active classification mapping.
type MappingLoader interface {
	Load(ctx context.Context) error
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	sweeper       ChunkSweeper
	sweepSchedule string

	mappings        MappingLoader // Optional
	refreshSchedule string
}

// NewScheduler creates a scheduler that runs the chunk sweep on schedule.
// Schedules use the standard 5-field format or descriptors like "@every 1m".
func NewScheduler(sweeper ChunkSweeper, sweepSchedule string, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:          c,
		logger:        logger,
		sweeper:       sweeper,
		sweepSchedule: sweepSchedule,
	}
}

// WithMappingRefresh reloads the classification mapping on schedule. An
// empty schedule leaves the job disabled.
func (s *Scheduler) WithMappingRefresh(loader MappingLoader, schedule string) *Scheduler {
	s.mappings = loader
	s.refreshSchedule = schedule
	return s
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.sweepSchedule, s.sweepChunks); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.sweepSchedule, err)
	}

	if s.mappings != nil && s.refreshSchedule != "" {
		if _, err := s.cron.AddFunc(s.refreshSchedule, s.refreshMappings); err != nil {
			return fmt.Errorf("invalid mapping refresh schedule %q: %w", s.refreshSchedule, err)
		}
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow runs the chunk sweep synchronously and returns the eviction count.
func (s *Scheduler) RunNow() int {
	return s.sweeper.SweepChunks()
}

func (s *Scheduler) sweepChunks() {
	start := time.Now()
	evicted := s.sweeper.SweepChunks()
	s.logger.Debug("chunk sweep completed",
		slog.Int("evicted", evicted),
		slog.Duration("duration", time.Since(start)),
	)
}

func (s *Scheduler) refreshMappings() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.mappings.Load(ctx); err != nil {
		s.logger.Warn("failed to refresh classification mapping", slog.Any("error", err))
	}
}
