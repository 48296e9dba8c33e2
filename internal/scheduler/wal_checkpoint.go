package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/database"
)

// walFrameWarning is the WAL size in frames that triggers a truncating checkpoint.
const walFrameWarning = 1000

// WALCheckpointJob monitors WAL growth and truncates large WAL files
type WALCheckpointJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewWALCheckpointJob creates a new WALCheckpointJob. nil databases are skipped.
func NewWALCheckpointJob(log zerolog.Logger, databases ...*database.DB) *WALCheckpointJob {
	return &WALCheckpointJob{
		databases: databases,
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run executes the WAL checkpoint job
func (j *WALCheckpointJob) Run() error {
	checked := 0
	for _, db := range j.databases {
		if db == nil {
			continue
		}

		// PRAGMA wal_checkpoint returns: busy, log, checkpointed
		var busy, frames, checkpointed int
		err := db.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
		if err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to check WAL checkpoint")
			continue
		}

		if frames > walFrameWarning {
			j.log.Warn().
				Str("database", db.Name()).
				Int("wal_frames", frames).
				Msg("WAL file is large, truncating")
			if err := db.WALCheckpoint("TRUNCATE"); err != nil {
				j.log.Warn().Err(err).Str("database", db.Name()).Msg("Truncating checkpoint failed")
			}
		}
		checked++
	}

	j.log.Debug().Int("checked", checked).Msg("WAL checkpoint check completed")
	return nil
}
