package optimization

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// RunRepository persists optimization runs.
// Database: runs.db (optimization_runs table)
type RunRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB, log zerolog.Logger) *RunRepository {
	return &RunRepository{
		db:  db,
		log: log.With().Str("repository", "optimization_runs").Logger(),
	}
}

// Save stores a run, assigning an ID and creation time when missing.
func (r *RunRepository) Save(ctx context.Context, run *Run) (string, error) {
	if run == nil || run.Result == nil {
		return "", fmt.Errorf("cannot save run without a result")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	blob, err := msgpack.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("failed to encode run %s: %w", run.ID, err)
	}

	truncated := 0
	if run.Result.Truncated {
		truncated = 1
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO optimization_runs
		(id, created_at, assets, trials_run, max_sharpe, min_volatility, truncated, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.CreatedAt.Unix(),
		strings.Join(run.Result.Assets, ","),
		run.Result.TrialsRun,
		run.Result.MaxSharpe.SharpeRatio,
		run.Result.MinVolatility.AnnualizedVolatility,
		truncated,
		blob,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	r.log.Debug().Str("run_id", run.ID).Int("bytes", len(blob)).Msg("Stored optimization run")
	return run.ID, nil
}

// Get loads a run by ID. Returns ErrRunNotFound for unknown IDs.
func (r *RunRepository) Get(ctx context.Context, id string) (*Run, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx, `SELECT result FROM optimization_runs WHERE id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", id, err)
	}

	var run Run
	if err := msgpack.Unmarshal(blob, &run); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	return &run, nil
}

// List returns the most recent runs, newest first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, assets, trials_run, max_sharpe, min_volatility, truncated
		FROM optimization_runs
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]RunSummary, 0)
	for rows.Next() {
		var (
			s         RunSummary
			createdAt int64
			assets    string
			truncated int
		)
		if err := rows.Scan(&s.ID, &createdAt, &assets, &s.TrialsRun, &s.MaxSharpe, &s.MinVolatility, &truncated); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		s.Assets = strings.Split(assets, ",")
		s.Truncated = truncated == 1
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return summaries, nil
}

// DeleteOlderThan removes runs created before cutoff and returns how many were removed.
func (r *RunRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM optimization_runs WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old runs: %w", err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		r.log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("Pruned optimization runs")
	}
	return n, nil
}
