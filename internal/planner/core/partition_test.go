package core

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func namedFiles(prefix string, n int) []string {
	files := make([]string, n)
	for i := range files {
		files[i] = fmt.Sprintf("/store/%s_%d.root", prefix, i)
	}
	return files
}

func TestPartition_ByFiles_JobCountAndReconstruction(t *testing.T) {
	tests := []struct {
		name     string
		numFiles int
		k        int
		wantJobs int
	}{
		{name: "even split", numFiles: 10, k: 5, wantJobs: 2},
		{name: "remainder in last job", numFiles: 10, k: 3, wantJobs: 4},
		{name: "one file per job", numFiles: 4, k: 1, wantJobs: 4},
		{name: "k larger than dataset", numFiles: 3, k: 100, wantJobs: 1},
		{name: "k equals dataset", numFiles: 7, k: 7, wantJobs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := namedFiles("prim", tt.numFiles)
			ds := NewDataset(primary, nil, nil)

			jobs, err := Partition(ds, SplitPolicy{Mode: SplitByFiles, UnitsPerJob: tt.k, TotalUnits: -1})
			if err != nil {
				t.Fatalf("Partition() error = %v", err)
			}
			if len(jobs) != tt.wantJobs {
				t.Fatalf("Partition() produced %d jobs, want %d", len(jobs), tt.wantJobs)
			}

			// Concatenated slices must reconstruct the input exactly.
			var reconstructed []string
			for i, job := range jobs {
				if job.Index != i {
					t.Errorf("job %d has index %d, indices must be dense", i, job.Index)
				}
				if job.OutputSuffix != fmt.Sprintf("_%d", i) {
					t.Errorf("job %d has suffix %q", i, job.OutputSuffix)
				}
				reconstructed = append(reconstructed, job.PrimarySlice...)
			}
			if !reflect.DeepEqual(reconstructed, primary) {
				t.Errorf("concatenated slices = %v, want %v", reconstructed, primary)
			}
		})
	}
}

func TestPartition_ByFiles_SecondaryStaysPaired(t *testing.T) {
	primary := namedFiles("prim", 5)
	secondary := namedFiles("sec", 5)
	ds := NewDataset(primary, secondary, nil)

	jobs, err := Partition(ds, SplitPolicy{Mode: SplitByFiles, UnitsPerJob: 2, TotalUnits: -1})
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}

	for _, job := range jobs {
		if len(job.PrimarySlice) != len(job.SecondarySlice) {
			t.Fatalf("job %d: %d primary vs %d secondary files",
				job.Index, len(job.PrimarySlice), len(job.SecondarySlice))
		}
		for i, p := range job.PrimarySlice {
			wantSec := fmt.Sprintf("/store/sec_%s", p[len("/store/prim_"):])
			if job.SecondarySlice[i] != wantSec {
				t.Errorf("job %d file %d: secondary %q not paired with primary %q",
					job.Index, i, job.SecondarySlice[i], p)
			}
		}
	}
}

func TestPartition_ByFiles_LumisFollowTheirFiles(t *testing.T) {
	primary := namedFiles("prim", 4)
	lumis := []LumiRange{
		{Run: 100, Start: 1, End: 10, FileIndex: 0},
		{Run: 100, Start: 11, End: 20, FileIndex: 1},
		{Run: 101, Start: 1, End: 8, FileIndex: 3},
	}
	ds := NewDataset(primary, nil, lumis)

	jobs, err := Partition(ds, SplitPolicy{Mode: SplitByFiles, UnitsPerJob: 2, TotalUnits: -1})
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}

	if got := len(jobs[0].LumiSlice); got != 2 {
		t.Errorf("job 0 has %d lumi entries, want 2", got)
	}
	if got := len(jobs[1].LumiSlice); got != 1 {
		t.Errorf("job 1 has %d lumi entries, want 1", got)
	}
	if jobs[1].LumiSlice[0].Run != 101 {
		t.Errorf("job 1 lumi run = %d, want 101", jobs[1].LumiSlice[0].Run)
	}
}

func TestPartition_TotalUnits(t *testing.T) {
	primary := namedFiles("prim", 10)
	ds := NewDataset(primary, nil, nil)

	t.Run("cap restricts to first N files", func(t *testing.T) {
		jobs, err := Partition(ds, SplitPolicy{Mode: SplitByFiles, UnitsPerJob: 2, TotalUnits: 5})
		if err != nil {
			t.Fatalf("Partition() error = %v", err)
		}
		if len(jobs) != 3 {
			t.Fatalf("got %d jobs, want 3", len(jobs))
		}
		var used []string
		for _, job := range jobs {
			used = append(used, job.PrimarySlice...)
		}
		if !reflect.DeepEqual(used, primary[:5]) {
			t.Errorf("partitioned files = %v, want first 5 of input", used)
		}
	})

	t.Run("cap above available uses everything", func(t *testing.T) {
		jobs, err := Partition(ds, SplitPolicy{Mode: SplitByFiles, UnitsPerJob: 4, TotalUnits: 50})
		if err != nil {
			t.Fatalf("Partition() error = %v", err)
		}
		if len(jobs) != 3 {
			t.Errorf("got %d jobs, want 3", len(jobs))
		}
	})

	t.Run("zero fails", func(t *testing.T) {
		_, err := Partition(ds, SplitPolicy{Mode: SplitByFiles, UnitsPerJob: 2, TotalUnits: 0})
		if !errors.Is(err, ErrNothingToPartition) {
			t.Errorf("Partition() error = %v, want ErrNothingToPartition", err)
		}
	})
}

func TestPartition_ByLumis(t *testing.T) {
	primary := namedFiles("prim", 3)
	secondary := namedFiles("sec", 3)
	lumis := []LumiRange{
		{Run: 100, Start: 1, End: 5, FileIndex: 0},
		{Run: 100, Start: 6, End: 10, FileIndex: 0},
		{Run: 100, Start: 11, End: 15, FileIndex: 1},
		{Run: 101, Start: 1, End: 5, FileIndex: 2},
		{Run: 101, Start: 6, End: 9, FileIndex: 2},
	}
	ds := NewDataset(primary, secondary, lumis)

	jobs, err := Partition(ds, SplitPolicy{Mode: SplitByLumis, UnitsPerJob: 2, TotalUnits: -1})
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("got %d jobs, want 3", len(jobs))
	}

	// Job 0 covers the first two entries, both from file 0.
	if !reflect.DeepEqual(jobs[0].PrimarySlice, primary[:1]) {
		t.Errorf("job 0 primary = %v, want %v", jobs[0].PrimarySlice, primary[:1])
	}
	// Job 1 spans files 1 and 2.
	if !reflect.DeepEqual(jobs[1].PrimarySlice, primary[1:3]) {
		t.Errorf("job 1 primary = %v, want %v", jobs[1].PrimarySlice, primary[1:3])
	}
	if !reflect.DeepEqual(jobs[1].SecondarySlice, secondary[1:3]) {
		t.Errorf("job 1 secondary = %v, want %v", jobs[1].SecondarySlice, secondary[1:3])
	}
	// Remainder job holds the last lumi entry only.
	if len(jobs[2].LumiSlice) != 1 {
		t.Errorf("job 2 has %d lumi entries, want 1", len(jobs[2].LumiSlice))
	}
}

func TestPartition_ByLumis_Unresolved(t *testing.T) {
	primary := namedFiles("prim", 2)
	lumis := []LumiRange{
		{Run: 100, Start: 1, End: 5, FileIndex: 0},
		{Run: 200, Start: 1, End: 5, FileIndex: -1},
	}
	ds := NewDataset(primary, nil, lumis)

	_, err := Partition(ds, SplitPolicy{Mode: SplitByLumis, UnitsPerJob: 10, TotalUnits: -1})

	var unresolved *UnresolvedLumiError
	if !errors.As(err, &unresolved) {
		t.Fatalf("Partition() error = %v, want UnresolvedLumiError", err)
	}
	if unresolved.Entry.Run != 200 {
		t.Errorf("offending entry run = %d, want 200", unresolved.Entry.Run)
	}
}

func TestPartition_ByLumis_NoLumis(t *testing.T) {
	ds := NewDataset(namedFiles("prim", 2), nil, nil)
	_, err := Partition(ds, SplitPolicy{Mode: SplitByLumis, UnitsPerJob: 2, TotalUnits: -1})
	if !errors.Is(err, ErrNothingToPartition) {
		t.Errorf("Partition() error = %v, want ErrNothingToPartition", err)
	}
}

func TestPartition_InvalidPolicy(t *testing.T) {
	ds := NewDataset(namedFiles("prim", 2), nil, nil)

	tests := []struct {
		name   string
		policy SplitPolicy
	}{
		{name: "zero units per job", policy: SplitPolicy{Mode: SplitByFiles, UnitsPerJob: 0, TotalUnits: -1}},
		{name: "negative units per job", policy: SplitPolicy{Mode: SplitByFiles, UnitsPerJob: -3, TotalUnits: -1}},
		{name: "unknown mode", policy: SplitPolicy{Mode: "EVENTS", UnitsPerJob: 1, TotalUnits: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Partition(ds, tt.policy); !errors.Is(err, ErrInvalidPolicy) {
				t.Errorf("Partition() error = %v, want ErrInvalidPolicy", err)
			}
		})
	}
}

func TestPartition_Deterministic(t *testing.T) {
	primary := namedFiles("prim", 13)
	secondary := namedFiles("sec", 13)
	lumis := make([]LumiRange, 13)
	for i := range lumis {
		lumis[i] = LumiRange{Run: 100, Start: int64(i*10 + 1), End: int64(i*10 + 10), FileIndex: i}
	}
	ds := NewDataset(primary, secondary, lumis)

	for _, mode := range []SplitMode{SplitByFiles, SplitByLumis} {
		policy := SplitPolicy{Mode: mode, UnitsPerJob: 4, TotalUnits: -1}
		first, err := Partition(ds, policy)
		if err != nil {
			t.Fatalf("Partition(%s) error = %v", mode, err)
		}
		second, err := Partition(ds, policy)
		if err != nil {
			t.Fatalf("Partition(%s) error = %v", mode, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Partition(%s) is not deterministic", mode)
		}
	}
}
