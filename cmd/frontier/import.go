package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/modules/marketdata"
)

func newImportCmd(logFor func(*cobra.Command) zerolog.Logger) *cobra.Command {
	var csvPath, dataDir string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a price file into the history database used by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logFor(cmd)

			if dataDir == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				dataDir = cfg.DataDir
			}

			series, err := readCSV(csvPath)
			if err != nil {
				return err
			}

			db, err := database.New(database.Config{
				Path:    filepath.Join(dataDir, "history.db"),
				Profile: database.ProfileStandard,
				Name:    database.NameHistory,
			})
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(); err != nil {
				return err
			}

			repo := marketdata.NewRepository(db.Conn(), log)
			assets := make([]string, 0, len(series))
			for asset := range series {
				assets = append(assets, asset)
			}
			sort.Strings(assets)

			out := cmd.OutOrStdout()
			for _, asset := range assets {
				n, err := repo.Upsert(cmd.Context(), asset, series[asset])
				if err != nil {
					return fmt.Errorf("%s: %w", asset, err)
				}
				fmt.Fprintf(out, "%s: %d prices\n", asset, n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "price file with date,asset,close rows (required)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory (default: FRONTIER_DATA_DIR)")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}
