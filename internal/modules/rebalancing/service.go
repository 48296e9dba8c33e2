package rebalancing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/optimization"
)

// RunLookup finds stored optimization runs.
type RunLookup interface {
	GetRun(ctx context.Context, id string) (*optimization.Run, error)
}

// Service plans rebalances against explicit targets or stored optimization runs.
type Service struct {
	rebalancer *Rebalancer
	runs       RunLookup
	log        zerolog.Logger
}

// NewService creates a rebalancing service. runs may be nil when only explicit
// targets are planned.
func NewService(runs RunLookup, log zerolog.Logger) *Service {
	return &Service{
		rebalancer: NewRebalancer(),
		runs:       runs,
		log:        log.With().Str("service", "rebalancing").Logger(),
	}
}

// PlanTarget plans a rebalance toward one target allocation.
func (s *Service) PlanTarget(holdings Holdings, target map[string]float64) (*RebalancePlan, error) {
	plan, err := s.rebalancer.Plan(holdings, target)
	if err != nil {
		return nil, err
	}
	s.log.Debug().
		Float64("total_value_usd", plan.TotalValueUSD).
		Int("assets", len(plan.QuantityDelta)).
		Msg("Planned rebalance")
	return plan, nil
}

// PlanRun plans rebalances toward both portfolios of a stored run.
func (s *Service) PlanRun(ctx context.Context, holdings Holdings, runID string) (map[string]*RebalancePlan, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("%w: %s", optimization.ErrRunNotFound, runID)
	}
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	plans, err := s.rebalancer.PlanForFrontier(holdings, run.Result)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("run_id", runID).
		Float64("total_value_usd", holdings.TotalValueUSD()).
		Msg("Planned rebalance for optimization run")
	return plans, nil
}
