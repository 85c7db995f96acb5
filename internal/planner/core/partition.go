package core

import (
	"fmt"
	"slices"
)

type SplitMode string

const (
	SplitByFiles SplitMode = "FILES"
	SplitByLumis SplitMode = "LUMIS"
)

// SplitPolicy selects how a dataset is cut into jobs. Exactly one mode
// applies per run. TotalUnits caps how many files (or lumi entries) are
// eligible before chunking; a negative value means all of them.
type SplitPolicy struct {
	Mode        SplitMode
	UnitsPerJob int
	TotalUnits  int
}

// JobSpec is one unit of work: a contiguous slice of the dataset with a
// dense 0-based index. It is never mutated after Partition returns it.
type JobSpec struct {
	Index          int
	PrimarySlice   []string
	SecondarySlice []string
	LumiSlice      []LumiRange
	OutputSuffix   string
}

// OutputSuffixFor derives the per-job output suffix from a job index, so
// sibling jobs never collide on a shared output path and every output file
// is traceable to its job.
func OutputSuffixFor(index int) string {
	return fmt.Sprintf("_%d", index)
}

// Partition slices the dataset into JobSpecs according to policy. It is a
// pure function of its inputs: the same dataset and policy always produce
// the same jobs in the same order.
func Partition(ds *Dataset, policy SplitPolicy) ([]JobSpec, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if policy.UnitsPerJob <= 0 {
		return nil, fmt.Errorf("%w: units per job must be positive, got %d",
			ErrInvalidPolicy, policy.UnitsPerJob)
	}

	switch policy.Mode {
	case SplitByFiles:
		return partitionByFiles(ds, policy)
	case SplitByLumis:
		return partitionByLumis(ds, policy)
	default:
		return nil, fmt.Errorf("%w: unknown split mode %q", ErrInvalidPolicy, policy.Mode)
	}
}

// capUnits clamps the eligible unit count to available. Zero is an explicit
// request for nothing and fails; negative means everything.
func capUnits(available, totalUnits int) (int, error) {
	if totalUnits == 0 {
		return 0, ErrNothingToPartition
	}
	if totalUnits < 0 || totalUnits > available {
		return available, nil
	}
	return totalUnits, nil
}

func partitionByFiles(ds *Dataset, policy SplitPolicy) ([]JobSpec, error) {
	n, err := capUnits(len(ds.primary), policy.TotalUnits)
	if err != nil {
		return nil, err
	}

	k := policy.UnitsPerJob
	jobs := make([]JobSpec, 0, (n+k-1)/k)
	for start := 0; start < n; start += k {
		end := min(start+k, n)
		job := JobSpec{
			Index:        len(jobs),
			PrimarySlice: slices.Clone(ds.primary[start:end]),
			OutputSuffix: OutputSuffixFor(len(jobs)),
		}
		if len(ds.secondary) > 0 {
			job.SecondarySlice = slices.Clone(ds.secondary[start:end])
		}
		for _, lr := range ds.lumis {
			if lr.FileIndex >= start && lr.FileIndex < end {
				job.LumiSlice = append(job.LumiSlice, lr)
			}
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func partitionByLumis(ds *Dataset, policy SplitPolicy) ([]JobSpec, error) {
	n, err := capUnits(len(ds.lumis), policy.TotalUnits)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: dataset has no lumi entries", ErrNothingToPartition)
	}

	k := policy.UnitsPerJob
	jobs := make([]JobSpec, 0, (n+k-1)/k)
	for start := 0; start < n; start += k {
		end := min(start+k, n)
		chunk := ds.lumis[start:end]

		var fileIndexes []int
		for _, lr := range chunk {
			if lr.FileIndex < 0 || lr.FileIndex >= len(ds.primary) {
				return nil, &UnresolvedLumiError{Entry: lr}
			}
			if !slices.Contains(fileIndexes, lr.FileIndex) {
				fileIndexes = append(fileIndexes, lr.FileIndex)
			}
		}
		slices.Sort(fileIndexes)

		job := JobSpec{
			Index:        len(jobs),
			LumiSlice:    slices.Clone(chunk),
			OutputSuffix: OutputSuffixFor(len(jobs)),
		}
		for _, fi := range fileIndexes {
			job.PrimarySlice = append(job.PrimarySlice, ds.primary[fi])
			if len(ds.secondary) > 0 {
				job.SecondarySlice = append(job.SecondarySlice, ds.secondary[fi])
			}
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
