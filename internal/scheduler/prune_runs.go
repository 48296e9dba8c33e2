package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RunPruner deletes stored optimization runs older than a cutoff.
type RunPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneRunsJob removes optimization runs past their retention period
type PruneRunsJob struct {
	runs      RunPruner
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewPruneRunsJob creates a new PruneRunsJob
func NewPruneRunsJob(runs RunPruner, retention time.Duration, log zerolog.Logger) *PruneRunsJob {
	return &PruneRunsJob{
		runs:      runs,
		retention: retention,
		now:       time.Now,
		log:       log.With().Str("job", "prune_runs").Logger(),
	}
}

// Name returns the job name
func (j *PruneRunsJob) Name() string {
	return "prune_runs"
}

// Run executes the prune
func (j *PruneRunsJob) Run() error {
	cutoff := j.now().Add(-j.retention)
	n, err := j.runs.DeleteOlderThan(context.Background(), cutoff)
	if err != nil {
		return err
	}
	j.log.Debug().Int64("deleted", n).Time("cutoff", cutoff).Msg("Prune completed")
	return nil
}
