package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDataset is returned when a dataset holds no primary files.
	ErrEmptyDataset = errors.New("dataset has no primary files")

	// ErrShapeMismatch is returned when the secondary file list is non-empty
	// but its length differs from the primary file list.
	ErrShapeMismatch = errors.New("secondary file count does not match primary file count")

	// ErrNothingToPartition is returned when the total-units cap leaves no
	// units eligible for partitioning.
	ErrNothingToPartition = errors.New("nothing to partition")

	// ErrNoOutputsToMerge is returned when a merge tree is requested for an
	// empty output list.
	ErrNoOutputsToMerge = errors.New("no outputs to merge")

	// ErrInvalidPolicy is returned for a split policy with a non-positive
	// units-per-job value or an unknown split mode.
	ErrInvalidPolicy = errors.New("invalid split policy")

	// ErrInvalidGroupSize is returned when a merge tree is requested with a
	// fan-in below two.
	ErrInvalidGroupSize = errors.New("merge group size must be at least 2")
)

// UnresolvedLumiError reports a lumi entry that cannot be traced back to any
// primary file during lumi-based splitting.
type UnresolvedLumiError struct {
	Entry LumiRange
}

func (e *UnresolvedLumiError) Error() string {
	return fmt.Sprintf("lumi entry run=%d [%d-%d] does not match any primary file",
		e.Entry.Run, e.Entry.Start, e.Entry.End)
}

// NodeExecutionError reports a graph node whose payload exited non-zero.
// It is surfaced by executors outside the planning core; a failed node never
// invalidates sibling nodes or the graph itself.
type NodeExecutionError struct {
	NodeID   string
	ExitCode int
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s failed with exit code %d", e.NodeID, e.ExitCode)
}
