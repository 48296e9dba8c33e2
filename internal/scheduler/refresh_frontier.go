package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/optimization"
)

// Optimizer runs a frontier search and stores the result.
type Optimizer interface {
	Optimize(ctx context.Context, req optimization.OptimizeRequest) (*optimization.Run, error)
}

// RefreshFrontierJob re-runs the frontier search for the watchlist from
// stored price history. The search is truncated when the timeout elapses.
type RefreshFrontierJob struct {
	optimizer  Optimizer
	watchlist  []string
	dataPoints int
	timeout    time.Duration
	log        zerolog.Logger
}

// NewRefreshFrontierJob creates a refresh job. timeout <= 0 means no limit.
func NewRefreshFrontierJob(optimizer Optimizer, watchlist []string, dataPoints int, timeout time.Duration, log zerolog.Logger) *RefreshFrontierJob {
	return &RefreshFrontierJob{
		optimizer:  optimizer,
		watchlist:  watchlist,
		dataPoints: dataPoints,
		timeout:    timeout,
		log:        log.With().Str("job", "refresh_frontier").Logger(),
	}
}

// Name returns the job name
func (j *RefreshFrontierJob) Name() string {
	return "refresh_frontier"
}

// Run executes the refresh
func (j *RefreshFrontierJob) Run() error {
	if len(j.watchlist) == 0 {
		return errors.New("watchlist is empty")
	}

	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	run, err := j.optimizer.Optimize(ctx, optimization.OptimizeRequest{
		Assets:     j.watchlist,
		DataPoints: j.dataPoints,
	})
	if err != nil {
		return fmt.Errorf("frontier refresh failed: %w", err)
	}

	j.log.Info().
		Str("run_id", run.ID).
		Strs("assets", j.watchlist).
		Float64("max_sharpe", run.Result.MaxSharpe.SharpeRatio).
		Bool("truncated", run.Result.Truncated).
		Msg("Frontier refreshed")
	return nil
}
