// gridplan-worker is the per-node executable referenced by generated submit
// files. It looks its job slice up in the shipped jobs.yaml by index and
// execs the payload program with the standard worker arguments.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type jobEntry struct {
	Index     int      `yaml:"index"`
	Output    string   `yaml:"output"`
	Files     []string `yaml:"files"`
	Secondary []string `yaml:"secondary,omitempty"`
	Lumis     []string `yaml:"lumis,omitempty"`
}

func main() {
	var jobsFile string
	var index int
	var suffix string
	var payload string

	cmd := &cobra.Command{
		Use:           "gridplan-worker",
		Short:         "Run one planned job slice through a payload program",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if payload == "" {
				payload = os.Getenv("GRIDPLAN_PAYLOAD")
			}
			if payload == "" {
				return fmt.Errorf("no payload program: use --exec or set GRIDPLAN_PAYLOAD")
			}

			job, err := lookupJob(jobsFile, index)
			if err != nil {
				return err
			}
			_ = suffix // carried by the DAG for log naming only

			argv := []string{"-i", strconv.Itoa(job.Index), "-o", job.Output}
			for _, f := range job.Files {
				argv = append(argv, "-f", f)
			}
			for _, f := range job.Secondary {
				argv = append(argv, "-F", f)
			}
			for _, l := range job.Lumis {
				argv = append(argv, "-l", l)
			}

			run := exec.Command(payload, argv...)
			run.Stdout = os.Stdout
			run.Stderr = os.Stderr
			return run.Run()
		},
	}

	cmd.Flags().StringVarP(&jobsFile, "jobs", "j", "jobs.yaml", "job list file written at submit time")
	cmd.Flags().IntVarP(&index, "index", "i", -1, "index of the job slice to run")
	cmd.Flags().StringVarP(&suffix, "suffix", "s", "", "output suffix macro (informational)")
	cmd.Flags().StringVarP(&payload, "exec", "e", "", "payload program to run")
	cmd.MarkFlagRequired("index")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		exitCode := 1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		os.Exit(exitCode)
	}
}

func lookupJob(path string, index int) (*jobEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job list: %w", err)
	}
	var entries []jobEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing job list: %w", err)
	}
	for i := range entries {
		if entries[i].Index == index {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("no job with index %d in %s", index, path)
}
