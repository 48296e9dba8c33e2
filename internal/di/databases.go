package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/database"
)

// InitializeDatabases opens both databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. history.db - daily closes per asset
	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileStandard,
		Name:    database.NameHistory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}
	container.HistoryDB = historyDB

	// 2. runs.db - optimization runs, recomputable from history
	runsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "runs.db"),
		Profile: database.ProfileCache,
		Name:    database.NameRuns,
	})
	if err != nil {
		historyDB.Close()
		return nil, fmt.Errorf("failed to initialize runs database: %w", err)
	}
	container.RunsDB = runsDB

	for _, db := range container.Databases() {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("Databases initialized")
	return container, nil
}
