package optimization

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PriceSource loads aligned price history for a set of assets, keeping at
// most limit of the most recent rows (limit <= 0 keeps everything).
type PriceSource interface {
	LoadAligned(ctx context.Context, assets []string, limit int) (TimeSeriesData, error)
}

// RunStore persists optimization runs.
type RunStore interface {
	Save(ctx context.Context, run *Run) (string, error)
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, limit int) ([]RunSummary, error)
}

// OptimizeRequest describes one frontier search. Zero values fall back to
// the service defaults.
type OptimizeRequest struct {
	Assets         []string
	Prices         *TimeSeriesData // nil = load from the price source
	DataPoints     int
	Trials         int
	RiskFreeRate   *float64
	PeriodsPerYear int
	Seed           *uint64
	Shrinkage      *bool
}

// ServiceConfig holds defaults applied to every request.
type ServiceConfig struct {
	Search     SearchConfig
	Shrinkage  bool
	DataPoints int
}

// Service runs frontier searches over stored or supplied price history.
type Service struct {
	search *FrontierSearch
	prices PriceSource
	runs   RunStore
	cfg    ServiceConfig
	log    zerolog.Logger
}

// NewService creates an optimization service. prices and runs may be nil:
// requests must then carry their own prices and runs are not stored.
func NewService(prices PriceSource, runs RunStore, cfg ServiceConfig, log zerolog.Logger) *Service {
	return &Service{
		search: NewFrontierSearch(),
		prices: prices,
		runs:   runs,
		cfg:    cfg,
		log:    log.With().Str("service", "optimization").Logger(),
	}
}

// Optimize estimates moments, searches the frontier and stores the run.
func (s *Service) Optimize(ctx context.Context, req OptimizeRequest) (*Run, error) {
	if len(req.Assets) == 0 {
		return nil, ErrEmptyAssetUniverse
	}
	if req.DataPoints < 0 {
		return nil, fmt.Errorf("%w: data points must not be negative, got %d", ErrInvalidConfig, req.DataPoints)
	}

	cfg, shrinkage := s.resolve(req)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataPoints := req.DataPoints
	if dataPoints == 0 {
		dataPoints = s.cfg.DataPoints
	}

	var data TimeSeriesData
	switch {
	case req.Prices != nil:
		data = req.Prices.Tail(dataPoints)
	case s.prices != nil:
		loaded, err := s.prices.LoadAligned(ctx, req.Assets, dataPoints)
		if err != nil {
			return nil, fmt.Errorf("failed to load price history: %w", err)
		}
		data = loaded
	default:
		return nil, fmt.Errorf("%w: no prices supplied and no price source configured", ErrInsufficientData)
	}

	start := time.Now()
	moments, err := EstimateMoments(req.Assets, data, EstimatorOptions{Shrinkage: shrinkage})
	if err != nil {
		return nil, err
	}

	result, err := s.search.Run(ctx, moments, cfg)
	if err != nil {
		return nil, err
	}

	run := &Run{
		CreatedAt: time.Now().UTC(),
		Params: RunParams{
			Trials:         cfg.Trials,
			RiskFreeRate:   cfg.RiskFreeRate,
			PeriodsPerYear: cfg.PeriodsPerYear,
			Seed:           cfg.Seed,
			DataPoints:     moments.Observations + 1,
			Shrinkage:      shrinkage,
		},
		Result:           result,
		Correlation:      CorrelationMatrix(moments),
		HighCorrelations: HighCorrelations(moments, HighCorrelationThreshold),
		AssetStats:       AssetStats(moments, cfg.PeriodsPerYear, cfg.RiskFreeRate),
		Observations:     moments.Observations,
	}

	event := s.log.Info()
	if result.Truncated {
		event = s.log.Warn()
	}
	event.
		Strs("assets", req.Assets).
		Int("trials_run", result.TrialsRun).
		Int("degenerate", result.DegenerateTrials).
		Bool("truncated", result.Truncated).
		Float64("max_sharpe", result.MaxSharpe.SharpeRatio).
		Float64("min_volatility", result.MinVolatility.AnnualizedVolatility).
		Dur("duration", time.Since(start)).
		Msg("Frontier search completed")

	if s.runs != nil {
		// a truncated run is stored even though ctx is already done;
		// the search result is still returned if storing it fails
		if _, err := s.runs.Save(context.WithoutCancel(ctx), run); err != nil {
			run.ID = ""
			s.log.Error().Err(err).Msg("Failed to store optimization run")
		}
	}

	return run, nil
}

// GetRun returns a stored run.
func (s *Service) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return s.runs.Get(ctx, id)
}

// ListRuns returns recent stored runs, newest first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if s.runs == nil {
		return []RunSummary{}, nil
	}
	return s.runs.List(ctx, limit)
}

func (s *Service) resolve(req OptimizeRequest) (SearchConfig, bool) {
	cfg := s.cfg.Search
	if req.Trials != 0 {
		cfg.Trials = req.Trials
	}
	if req.RiskFreeRate != nil {
		cfg.RiskFreeRate = *req.RiskFreeRate
	}
	if req.PeriodsPerYear != 0 {
		cfg.PeriodsPerYear = req.PeriodsPerYear
	}
	if req.Seed != nil {
		cfg.Seed = req.Seed
	}

	shrinkage := s.cfg.Shrinkage
	if req.Shrinkage != nil {
		shrinkage = *req.Shrinkage
	}
	return cfg, shrinkage
}
