// Package cli wires the gridplan commands: planning a dataset into an
// HTCondor DAG, planning a standalone merge, running a plan locally, and
// serving the planning API.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mkovacev/gridplan/internal/shared/config"
	"github.com/mkovacev/gridplan/internal/shared/logging"
)

const version = "0.3.0"

var (
	configFile string
	verbose    bool
)

func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gridplan",
		Short: "gridplan plans batch compute over grid datasets",
		Long: `gridplan splits a dataset into jobs, fans them out as an HTCondor DAG,
and plans bounded fan-in merge trees over their outputs.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default config/planner.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(buildSubmitCommand())
	rootCmd.AddCommand(buildMergeCommand())
	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildServeCommand())

	return rootCmd
}

// loadEnv loads the configuration and builds the logger every command shares.
func loadEnv() (*config.PlannerConfig, logging.Logger, error) {
	cfg, err := config.LoadPlanner(configFile)
	if err != nil {
		return nil, nil, err
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if verbose {
		level = logging.ParseLevel("debug")
	}
	logger := logging.New(os.Stderr, level, cfg.Logging.Format)

	return cfg, logger, nil
}
