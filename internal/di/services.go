package di

import (
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/modules/marketdata"
	marketdatahandlers "github.com/aristath/frontier/internal/modules/marketdata/handlers"
	"github.com/aristath/frontier/internal/modules/optimization"
	optimizationhandlers "github.com/aristath/frontier/internal/modules/optimization/handlers"
	"github.com/aristath/frontier/internal/modules/rebalancing"
	rebalancinghandlers "github.com/aristath/frontier/internal/modules/rebalancing/handlers"
)

// InitializeRepositories creates repositories over the open databases
func InitializeRepositories(container *Container, log zerolog.Logger) {
	container.PriceRepo = marketdata.NewRepository(container.HistoryDB.Conn(), log)
	container.RunRepo = optimization.NewRunRepository(container.RunsDB.Conn(), log)
}

// InitializeServices creates services and their HTTP handlers
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) {
	container.OptimizationService = optimization.NewService(
		container.PriceRepo,
		container.RunRepo,
		optimization.ServiceConfig{
			Search:     cfg.SearchConfig(),
			Shrinkage:  cfg.Shrinkage,
			DataPoints: cfg.Lookback,
		},
		log,
	)
	container.RebalancingService = rebalancing.NewService(container.OptimizationService, log)

	container.MarketDataHandler = marketdatahandlers.NewHandler(container.PriceRepo, log)
	container.OptimizationHandler = optimizationhandlers.NewHandler(container.OptimizationService, log)
	container.RebalancingHandler = rebalancinghandlers.NewHandler(container.RebalancingService, log)
}
