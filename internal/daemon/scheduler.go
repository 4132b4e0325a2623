package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/ytdlpd/internal/logfields"
	"git.home.luguber.info/inful/ytdlpd/internal/store"
)

const (
	jobConfigSweep    = "config-sweep"
	jobRetentionPrune = "retention-prune"

	pruneTimeout = 30 * time.Second
)

// ConfigSweeper normalizes every stored config.
type ConfigSweeper interface {
	NormalizeAll() ([]store.NormalizeResult, error)
}

// EventPruner removes events recorded before a cutoff.
type EventPruner interface {
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// Scheduler wraps gocron scheduler for managing periodic maintenance tasks.
type Scheduler struct {
	scheduler gocron.Scheduler
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		now:       time.Now,
	}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler", slog.Int("jobs", len(s.scheduler.Jobs())))
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleConfigSweep normalizes every stored config on start and then every
// interval. Returns the job ID for later management.
func (s *Scheduler) ScheduleConfigSweep(interval time.Duration, sweeper ConfigSweeper) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runConfigSweep, sweeper),
		gocron.WithName(jobConfigSweep),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create config sweep job: %w", err)
	}
	return job.ID().String(), nil
}

// ScheduleRetentionPrune deletes events older than retention every interval.
func (s *Scheduler) ScheduleRetentionPrune(interval, retention time.Duration, pruner EventPruner) (string, error) {
	if retention <= 0 {
		return "", fmt.Errorf("retention must be positive, got %s", retention)
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runRetentionPrune, retention, pruner),
		gocron.WithName(jobRetentionPrune),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create retention prune job: %w", err)
	}
	return job.ID().String(), nil
}

// runConfigSweep is called by gocron to execute a scheduled sweep.
func (s *Scheduler) runConfigSweep(sweeper ConfigSweeper) {
	start := s.now()
	results, err := sweeper.NormalizeAll()
	changed := 0
	for _, res := range results {
		if res.Changed {
			changed++
		}
	}
	if err != nil {
		slog.Warn("Config sweep finished with errors",
			logfields.ScheduleName(jobConfigSweep),
			slog.Int("configs", len(results)),
			slog.Int("changed", changed),
			logfields.Error(err))
		return
	}
	slog.Info("Config sweep finished",
		logfields.ScheduleName(jobConfigSweep),
		slog.Int("configs", len(results)),
		slog.Int("changed", changed),
		logfields.Duration(s.now().Sub(start)))
}

// runRetentionPrune is called by gocron to execute a scheduled prune.
func (s *Scheduler) runRetentionPrune(retention time.Duration, pruner EventPruner) {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	cutoff := s.now().Add(-retention)
	removed, err := pruner.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("Event retention prune failed", logfields.ScheduleName(jobRetentionPrune), logfields.Error(err))
		return
	}
	slog.Info("Event retention prune finished",
		logfields.ScheduleName(jobRetentionPrune),
		slog.Int64("removed", removed),
		slog.Time("cutoff", cutoff))
}
