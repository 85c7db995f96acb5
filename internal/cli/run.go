package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mkovacev/gridplan/internal/runner"
	"github.com/mkovacev/gridplan/internal/worker"
)

func buildRunCommand() *cobra.Command {
	opts := &planOptions{}
	var workers int
	var outputDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Plan a dataset and execute it on the local host",
		Long: `Build the plan for a manifest and run its graph locally with a bounded
worker pool, then run the merge tree over the job outputs. Useful for small
datasets and for validating a manifest before grid submission.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}

			plan, err := buildPlan(cfg, logger, opts)
			if err != nil {
				return err
			}

			dir := outputDir
			if dir == "" {
				dir = cfg.Runner.WorkDir
			}
			if dir == "" {
				dir = cfg.Submit.OutputDir
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			numWorkers := workers
			if numWorkers <= 0 {
				numWorkers = cfg.Runner.Workers
			}

			r := &runner.Runner{
				Contract: worker.Contract{
					Executable: cfg.Submit.WorkerExecutable,
					MergeTool:  cfg.Submit.MergeTool,
					OutputDir:  dir,
					OutputBase: plan.OutputBase,
				},
				Workers: numWorkers,
				Logger:  logger,
			}

			ctx := cmd.Context()
			logger.Info("Running plan locally",
				"plan_id", plan.ID.String(),
				"num_jobs", plan.NumJobs(),
				"workers", numWorkers,
			)
			if err := r.Run(ctx, plan.Graph); err != nil {
				return err
			}

			if plan.Merge != nil && plan.Merge.Depth() > 0 {
				mergeGraph, err := plan.Merge.Graph()
				if err != nil {
					return err
				}
				logger.Info("Running merge tree",
					"depth", plan.Merge.Depth(),
					"result", plan.Merge.Result,
				)
				if err := r.Run(ctx, mergeGraph); err != nil {
					return err
				}
			}

			logger.Info("Plan completed", "plan_id", plan.ID.String())
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent node processes (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory job outputs are written to")

	return cmd
}
