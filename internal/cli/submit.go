package cli

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mkovacev/gridplan/internal/condor"
	"github.com/mkovacev/gridplan/internal/dataset"
	"github.com/mkovacev/gridplan/internal/planner/core"
	"github.com/mkovacev/gridplan/internal/planner/service"
	"github.com/mkovacev/gridplan/internal/planner/storage"
	"github.com/mkovacev/gridplan/internal/shared/config"
	"github.com/mkovacev/gridplan/internal/shared/logging"
	"github.com/mkovacev/gridplan/internal/worker"
)

// planOptions are the submit/run flags that shape a plan.
type planOptions struct {
	manifestPath string
	name         string
	mode         string
	unitsPerJob  int
	totalUnits   float64
	groupSize    int
}

func (o *planOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.manifestPath, "manifest", "m", "", "dataset manifest file (YAML)")
	cmd.Flags().StringVarP(&o.name, "name", "n", "", "plan name (default: manifest name)")
	cmd.Flags().StringVar(&o.mode, "mode", "files", "split mode: files or lumis")
	cmd.Flags().IntVarP(&o.unitsPerJob, "units-per-job", "u", 0, "files (or lumi entries) per job (default from config)")
	cmd.Flags().Float64VarP(&o.totalUnits, "total-units", "t", -1, "units to process: negative for all, a fraction (0,1) for part of the dataset")
	cmd.Flags().IntVarP(&o.groupSize, "group-size", "g", -1, "merge fan-in; 0 disables merge planning (default from config)")
	cmd.MarkFlagRequired("manifest")
}

func buildSubmitCommand() *cobra.Command {
	opts := &planOptions{}
	var dagDir string
	var doSubmit bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Plan a dataset and write its HTCondor DAG",
		Long: `Read a dataset manifest, split it into jobs, and write the DAGMan
description, submit files, and per-job input lists. With --submit the DAG is
handed to condor_submit_dag.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}

			plan, err := buildPlan(cfg, logger, opts)
			if err != nil {
				return err
			}

			dagFile, err := writeDAGFiles(cfg, plan, dagDir)
			if err != nil {
				return err
			}
			logger.Info("DAG written",
				"plan_id", plan.ID.String(),
				"dag", dagFile,
				"num_jobs", plan.NumJobs(),
			)

			if doSubmit {
				return submitDAG(logger, dagFile)
			}
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&dagDir, "dag-dir", "d", "dag", "directory the DAG files are written to")
	cmd.Flags().BoolVar(&doSubmit, "submit", false, "run condor_submit_dag on the generated DAG")

	return cmd
}

// buildPlan loads the manifest and turns it into a stored plan, filling any
// flag left at its zero value from the config defaults.
func buildPlan(cfg *config.PlannerConfig, logger logging.Logger, opts *planOptions) (*core.Plan, error) {
	manifest, err := dataset.Load(opts.manifestPath)
	if err != nil {
		return nil, err
	}
	ds, err := manifest.Build()
	if err != nil {
		return nil, err
	}

	mode, err := resolveSplitMode(opts.mode)
	if err != nil {
		return nil, err
	}

	unitsPerJob := opts.unitsPerJob
	if unitsPerJob <= 0 {
		unitsPerJob = cfg.Submit.UnitsPerJob
	}
	groupSize := opts.groupSize
	if groupSize < 0 {
		groupSize = cfg.Submit.GroupSize
	}

	available := ds.Len()
	if mode == core.SplitByLumis {
		available = ds.NumLumis()
	}

	name := opts.name
	if name == "" {
		name = manifest.Name
	}
	if name == "" {
		base := filepath.Base(opts.manifestPath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	svc := service.NewPlanService(storage.NewInMemoryPlanStore(), nil, logger)
	return svc.BuildPlan(core.PlanRequest{
		Name:    name,
		Dataset: ds,
		Policy: core.SplitPolicy{
			Mode:        mode,
			UnitsPerJob: unitsPerJob,
			TotalUnits:  resolveTotalUnits(opts.totalUnits, available),
		},
		GroupSize:  groupSize,
		OutputBase: cfg.Submit.OutputBase,
	})
}

func resolveSplitMode(mode string) (core.SplitMode, error) {
	switch strings.ToLower(mode) {
	case "files":
		return core.SplitByFiles, nil
	case "lumis":
		return core.SplitByLumis, nil
	default:
		return "", fmt.Errorf("unknown split mode %q (want files or lumis)", mode)
	}
}

// resolveTotalUnits maps the flag value to an absolute unit cap. Negative
// means everything; a fraction in (0,1) means that share of the dataset,
// rounded up.
func resolveTotalUnits(t float64, available int) int {
	if t < 0 {
		return -1
	}
	if t > 0 && t < 1 {
		return int(math.Ceil(t * float64(available)))
	}
	return int(t)
}

// jobFileEntry is one job's slice in the jobs.yaml shipped alongside the DAG.
// The worker looks its own slice up by index.
type jobFileEntry struct {
	Index     int      `yaml:"index"`
	Output    string   `yaml:"output"`
	Files     []string `yaml:"files"`
	Secondary []string `yaml:"secondary,omitempty"`
	Lumis     []string `yaml:"lumis,omitempty"`
}

// writeDAGFiles writes the DAG description, the submit files, and the job
// input list into dagDir and returns the DAG file path.
func writeDAGFiles(cfg *config.PlannerConfig, plan *core.Plan, dagDir string) (string, error) {
	if err := os.MkdirAll(dagDir, 0o755); err != nil {
		return "", err
	}

	entries := make([]jobFileEntry, 0, len(plan.Jobs))
	for _, job := range plan.Jobs {
		lumis := make([]string, 0, len(job.LumiSlice))
		for _, lr := range job.LumiSlice {
			lumis = append(lumis, worker.FormatLumi(lr))
		}
		entries = append(entries, jobFileEntry{
			Index:     job.Index,
			Output:    core.OutputName(plan.OutputBase, job.OutputSuffix),
			Files:     job.PrimarySlice,
			Secondary: job.SecondarySlice,
			Lumis:     lumis,
		})
	}
	jobsData, err := yaml.Marshal(entries)
	if err != nil {
		return "", err
	}
	jobsFile := filepath.Join(dagDir, "jobs.yaml")
	if err := os.WriteFile(jobsFile, jobsData, 0o644); err != nil {
		return "", err
	}

	if err := writeFileWith(filepath.Join(dagDir, "job.submit"), func(f *os.File) error {
		return condor.WriteSubmit(f, condor.SubmitOptions{
			Executable: cfg.Submit.WorkerExecutable,
			Arguments:  "-i $(index) -s $(suffix) -j jobs.yaml",
			LogDir:     cfg.Submit.LogDir,
			InputFiles: []string{jobsFile},
		})
	}); err != nil {
		return "", err
	}

	dagFile := filepath.Join(dagDir, plan.Name+".dag")
	if err := writeFileWith(dagFile, func(f *os.File) error {
		return condor.WriteDAG(f, plan.Graph, condor.DAGOptions{
			SubmitFile:     "job.submit",
			Retries:        cfg.Submit.Retries,
			StatusFile:     plan.Name + ".status",
			StatusInterval: cfg.Submit.StatusInterval,
		})
	}); err != nil {
		return "", err
	}

	if plan.Merge != nil && plan.Merge.Depth() > 0 {
		if err := writeFileWith(filepath.Join(dagDir, "merge.submit"), func(f *os.File) error {
			return condor.WriteSubmit(f, condor.SubmitOptions{
				Executable: cfg.Submit.MergeTool,
				Arguments:  "$(output) $(inputs)",
				LogDir:     cfg.Submit.LogDir,
				LogStem:    "merge.$(cluster).$(process)",
			})
		}); err != nil {
			return "", err
		}

		mergeGraph, err := plan.Merge.Graph()
		if err != nil {
			return "", err
		}
		if err := writeFileWith(filepath.Join(dagDir, plan.Name+"_merge.dag"), func(f *os.File) error {
			return condor.WriteDAG(f, mergeGraph, condor.DAGOptions{
				SubmitFile:     "merge.submit",
				Retries:        cfg.Submit.Retries,
				StatusFile:     plan.Name + "_merge.status",
				StatusInterval: cfg.Submit.StatusInterval,
			})
		}); err != nil {
			return "", err
		}
	}

	return dagFile, nil
}

func writeFileWith(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func submitDAG(logger logging.Logger, dagFile string) error {
	logger.Info("Submitting DAG", "dag", dagFile)
	cmd := exec.Command("condor_submit_dag", dagFile)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("condor_submit_dag failed: %w", err)
	}
	return nil
}
