package optimization

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// trialBatchSize is how many trials the producer hands a worker at once.
const trialBatchSize = 256

// FrontierSearch approximates the efficient frontier by evaluating random
// points of the simplex and keeping the best max-Sharpe and min-volatility
// portfolios.
//
// Weight vectors are drawn by a single producer in trial order, so a seeded
// search visits the same portfolios whatever the worker count, and a longer
// run always contains every trial of a shorter one.
type FrontierSearch struct{}

// NewFrontierSearch creates a frontier search.
func NewFrontierSearch() *FrontierSearch {
	return &FrontierSearch{}
}

// Run validates cfg, seeds a generator from cfg.Seed and searches.
func (f *FrontierSearch) Run(ctx context.Context, m *Moments, cfg SearchConfig) (*FrontierResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return f.RunWithRand(ctx, m, cfg, NewRand(cfg.Seed))
}

// RunWithRand searches using the given generator; cfg.Seed is ignored.
//
// If ctx is cancelled the best portfolios among the trials evaluated so far
// are returned with Truncated set. When no trial completed, or every trial
// had zero volatility, ErrInsufficientSamples is returned.
func (f *FrontierSearch) RunWithRand(ctx context.Context, m *Moments, cfg SearchConfig, rng *rand.Rand) (*FrontierResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if m == nil || m.NumAssets() == 0 {
		return nil, ErrEmptyAssetUniverse
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random generator is required", ErrInvalidConfig)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if maxWorkers := (cfg.Trials + trialBatchSize - 1) / trialBatchSize; workers > maxWorkers {
		workers = maxWorkers
	}

	batches := make(chan trialBatch, workers)
	trackers := make([]*frontierTracker, workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(batches)
		sampler := NewSampler(rng)
		k := m.NumAssets()
		for start := 0; start < cfg.Trials; start += trialBatchSize {
			end := min(start+trialBatchSize, cfg.Trials)
			batch := trialBatch{start: start, weights: make([]WeightVector, end-start)}
			for i := range batch.weights {
				batch.weights[i] = sampler.Draw(k)
			}
			select {
			case batches <- batch:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		tracker := &frontierTracker{}
		trackers[i] = tracker
		g.Go(func() error {
			for batch := range batches {
				for j, w := range batch.weights {
					if gctx.Err() != nil {
						return nil
					}
					perf, err := Evaluate(w, m, cfg.PeriodsPerYear, cfg.RiskFreeRate)
					if errors.Is(err, ErrDegenerateVolatility) {
						tracker.degenerate++
						continue
					}
					if err != nil {
						return err
					}
					tracker.observe(candidate{index: batch.start + j, weights: w, perf: perf})
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := &frontierTracker{}
	for _, t := range trackers {
		total.merge(t)
	}

	truncated := total.completed+total.degenerate < cfg.Trials
	if total.completed == 0 {
		if truncated && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: search cancelled before any trial completed: %w", ErrInsufficientSamples, ctx.Err())
		}
		return nil, fmt.Errorf("%w: all %d trials had zero volatility", ErrInsufficientSamples, total.degenerate)
	}

	return &FrontierResult{
		Assets:           append([]string(nil), m.Assets...),
		MaxSharpe:        total.maxSharpe.sample(m.Assets),
		MinVolatility:    total.minVol.sample(m.Assets),
		TrialsRun:        total.completed + total.degenerate,
		DegenerateTrials: total.degenerate,
		Truncated:        truncated,
	}, nil
}

type trialBatch struct {
	start   int
	weights []WeightVector
}

type candidate struct {
	index   int
	weights WeightVector
	perf    Performance
}

func (c candidate) sample(assets []string) PortfolioSample {
	return PortfolioSample{
		Trial:                c.index,
		Weights:              c.weights.Allocation(assets),
		AnnualizedReturn:     c.perf.AnnualizedReturn,
		AnnualizedVolatility: c.perf.AnnualizedVolatility,
		SharpeRatio:          c.perf.SharpeRatio,
	}
}

// frontierTracker is a running reduction over evaluated trials. Owned by one
// worker until merged.
type frontierTracker struct {
	maxSharpe  candidate
	minVol     candidate
	completed  int
	degenerate int
}

func (t *frontierTracker) observe(c candidate) {
	if t.completed == 0 {
		t.maxSharpe, t.minVol = c, c
		t.completed = 1
		return
	}
	t.completed++
	if betterSharpe(c, t.maxSharpe) {
		t.maxSharpe = c
	}
	if lowerVolatility(c, t.minVol) {
		t.minVol = c
	}
}

// merge folds other into t. Order of merging does not change the result.
func (t *frontierTracker) merge(other *frontierTracker) {
	t.degenerate += other.degenerate
	if other.completed == 0 {
		return
	}
	if t.completed == 0 {
		t.maxSharpe, t.minVol = other.maxSharpe, other.minVol
		t.completed = other.completed
		return
	}
	t.completed += other.completed
	if betterSharpe(other.maxSharpe, t.maxSharpe) {
		t.maxSharpe = other.maxSharpe
	}
	if lowerVolatility(other.minVol, t.minVol) {
		t.minVol = other.minVol
	}
}

// Ties go to the earliest trial.
func betterSharpe(a, b candidate) bool {
	if a.perf.SharpeRatio != b.perf.SharpeRatio {
		return a.perf.SharpeRatio > b.perf.SharpeRatio
	}
	return a.index < b.index
}

func lowerVolatility(a, b candidate) bool {
	if a.perf.AnnualizedVolatility != b.perf.AnnualizedVolatility {
		return a.perf.AnnualizedVolatility < b.perf.AnnualizedVolatility
	}
	return a.index < b.index
}
