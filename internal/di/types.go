// Package di provides dependency injection wiring and initialization.
//
// The Container is the single source of truth for service instances and is
// handed to the HTTP server and the CLI.
package di

import (
	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/modules/marketdata"
	marketdatahandlers "github.com/aristath/frontier/internal/modules/marketdata/handlers"
	"github.com/aristath/frontier/internal/modules/optimization"
	optimizationhandlers "github.com/aristath/frontier/internal/modules/optimization/handlers"
	"github.com/aristath/frontier/internal/modules/rebalancing"
	rebalancinghandlers "github.com/aristath/frontier/internal/modules/rebalancing/handlers"
	"github.com/aristath/frontier/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	HistoryDB *database.DB // price history
	RunsDB    *database.DB // stored optimization runs

	// Repositories
	PriceRepo *marketdata.Repository
	RunRepo   *optimization.RunRepository

	// Services
	OptimizationService *optimization.Service
	RebalancingService  *rebalancing.Service

	// Handlers
	MarketDataHandler   *marketdatahandlers.Handler
	OptimizationHandler *optimizationhandlers.Handler
	RebalancingHandler  *rebalancinghandlers.Handler

	// Background jobs
	Scheduler *scheduler.Scheduler
	Jobs      *JobInstances
}

// JobInstances holds the registered jobs so they can be triggered manually
type JobInstances struct {
	RefreshFrontier *scheduler.RefreshFrontierJob // nil when no watchlist is configured
	PruneRuns       *scheduler.PruneRunsJob       // nil when runs are kept forever
	WALCheckpoint   *scheduler.WALCheckpointJob
}

// Databases returns the open databases in a stable order
func (c *Container) Databases() []*database.DB {
	dbs := make([]*database.DB, 0, 2)
	if c.HistoryDB != nil {
		dbs = append(dbs, c.HistoryDB)
	}
	if c.RunsDB != nil {
		dbs = append(dbs, c.RunsDB)
	}
	return dbs
}

// Close stops the scheduler and closes all databases
func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	var firstErr error
	for _, db := range c.Databases() {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
