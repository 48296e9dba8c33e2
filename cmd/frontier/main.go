// Command frontier runs frontier searches and rebalance plans from the
// command line against CSV price files.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/frontier/pkg/logger"
)

type rootOptions struct {
	logLevel string
	pretty   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "frontier",
		Short:         "Efficient frontier search and portfolio rebalancing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", true, "human readable log output")

	logFor := func(cmd *cobra.Command) zerolog.Logger {
		return logger.New(logger.Config{
			Level:  opts.logLevel,
			Pretty: opts.pretty,
			Output: cmd.ErrOrStderr(),
		})
	}

	cmd.AddCommand(
		newOptimizeCmd(logFor),
		newRebalanceCmd(logFor),
		newImportCmd(logFor),
	)
	return cmd
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
