package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/config"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
// 1. Initialize databases
// 2. Initialize repositories
// 3. Initialize services and handlers
// 4. Register jobs (the scheduler is not started)
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	InitializeRepositories(container, log)
	InitializeServices(container, cfg, log)

	if _, err := RegisterJobs(container, cfg, log); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed")
	return container, nil
}
