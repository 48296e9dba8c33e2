package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/scheduler"
)

const (
	// refreshTimeout bounds a scheduled frontier refresh; the search is
	// truncated rather than failed when it runs out.
	refreshTimeout = 10 * time.Minute

	pruneSchedule      = "@daily"
	walCheckpointEvery = "@every 30m"
)

// RegisterJobs builds the background jobs and registers them with the scheduler
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(log)
	jobs := &JobInstances{}

	if cfg.RefreshSchedule != "" && len(cfg.Watchlist) > 0 {
		jobs.RefreshFrontier = scheduler.NewRefreshFrontierJob(
			container.OptimizationService,
			cfg.Watchlist,
			cfg.Lookback,
			refreshTimeout,
			log,
		)
		if err := sched.AddJob(cfg.RefreshSchedule, jobs.RefreshFrontier); err != nil {
			return nil, fmt.Errorf("failed to register refresh job: %w", err)
		}
	}

	if cfg.RunRetentionDays > 0 {
		retention := time.Duration(cfg.RunRetentionDays) * 24 * time.Hour
		jobs.PruneRuns = scheduler.NewPruneRunsJob(container.RunRepo, retention, log)
		if err := sched.AddJob(pruneSchedule, jobs.PruneRuns); err != nil {
			return nil, fmt.Errorf("failed to register prune job: %w", err)
		}
	}

	jobs.WALCheckpoint = scheduler.NewWALCheckpointJob(log, container.Databases()...)
	if err := sched.AddJob(walCheckpointEvery, jobs.WALCheckpoint); err != nil {
		return nil, fmt.Errorf("failed to register WAL checkpoint job: %w", err)
	}

	container.Scheduler = sched
	container.Jobs = jobs
	return jobs, nil
}
