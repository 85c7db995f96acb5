// Package worker resolves graph nodes into concrete command lines. It is the
// boundary between the planning core and whatever actually executes a node:
// given a job's index, file slices, and output suffix, it produces the
// argument vector the per-job payload expects; merge nodes resolve to an
// invocation of the external merge tool.
package worker

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"

	"github.com/mkovacev/gridplan/internal/planner/core"
)

// Contract carries the executables and output layout shared by all nodes of
// one plan.
type Contract struct {
	// Executable runs one job's payload.
	Executable string
	// MergeTool combines N files into one, first argument the output.
	MergeTool string
	// OutputDir holds every produced artifact.
	OutputDir string
	// OutputBase is the unsuffixed output filename, e.g. "output.root".
	OutputBase string
}

// JobOutput returns the path a job must write its output to. The per-index
// suffix keeps sibling jobs from colliding.
func (c Contract) JobOutput(job core.JobSpec) string {
	return filepath.Join(c.OutputDir, core.OutputName(c.OutputBase, job.OutputSuffix))
}

// JobArgs builds the worker argument vector for one job: its index, its
// output path, and exactly its own file and lumi slices.
func (c Contract) JobArgs(job core.JobSpec) []string {
	args := []string{
		"-i", strconv.Itoa(job.Index),
		"-o", c.JobOutput(job),
	}
	for _, f := range job.PrimarySlice {
		args = append(args, "-f", f)
	}
	for _, f := range job.SecondarySlice {
		args = append(args, "-F", f)
	}
	for _, lr := range job.LumiSlice {
		args = append(args, "-l", FormatLumi(lr))
	}
	return args
}

// MergeArgs builds the merge tool invocation: output path first, inputs
// after, in spec order.
func (c Contract) MergeArgs(spec core.MergeSpec) []string {
	args := []string{c.Artifact(spec.OutputID)}
	for _, input := range spec.Inputs {
		args = append(args, c.Artifact(input))
	}
	return args
}

// Artifact resolves an output identifier to a path in the output directory.
// Intermediate merge ids carry no extension and inherit the base name's.
func (c Contract) Artifact(id string) string {
	if path.Ext(id) == "" {
		id += path.Ext(c.OutputBase)
	}
	return filepath.Join(c.OutputDir, id)
}

// Command resolves a node to its full argv. SETUP and FINALIZE are
// bookkeeping nodes and resolve to nil: nothing to execute.
func (c Contract) Command(node core.Node) ([]string, error) {
	switch node.Kind {
	case core.NodeSetup, core.NodeFinalize:
		return nil, nil
	case core.NodeJob:
		if node.Job == nil {
			return nil, fmt.Errorf("node %s has no job payload", node.ID)
		}
		return append([]string{c.Executable}, c.JobArgs(*node.Job)...), nil
	case core.NodeMerge:
		if node.Merge == nil {
			return nil, fmt.Errorf("node %s has no merge payload", node.ID)
		}
		return append([]string{c.MergeTool}, c.MergeArgs(*node.Merge)...), nil
	default:
		return nil, fmt.Errorf("node %s has unknown kind %q", node.ID, node.Kind)
	}
}

// FormatLumi renders a lumi entry as "run:start-end", the form the worker
// payload parses back.
func FormatLumi(lr core.LumiRange) string {
	return fmt.Sprintf("%d:%d-%d", lr.Run, lr.Start, lr.End)
}
