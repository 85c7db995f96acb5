package rest

import (
	"testing"

	"github.com/mkovacev/gridplan/internal/planner/core"
)

func TestToPlanRequestDefaultsTotalUnits(t *testing.T) {
	req := CreatePlanRequest{
		Name:    "test",
		Dataset: DatasetConfig{Files: []string{"/store/a.root"}},
		Split:   SplitConfig{Mode: "FILES", UnitsPerJob: 1},
	}

	got := req.ToPlanRequest()
	if got.Policy.TotalUnits != -1 {
		t.Errorf("Expected absent totalUnits to map to -1, got %d", got.Policy.TotalUnits)
	}

	five := 5
	req.Split.TotalUnits = &five
	if got := req.ToPlanRequest(); got.Policy.TotalUnits != 5 {
		t.Errorf("Expected totalUnits 5, got %d", got.Policy.TotalUnits)
	}
}

func TestToPlanRequestMapsLumis(t *testing.T) {
	req := CreatePlanRequest{
		Name: "test",
		Dataset: DatasetConfig{
			Files: []string{"/store/a.root"},
			Lumis: []LumiEntry{{Run: 259721, Start: 1, End: 50, File: 0}},
		},
		Split: SplitConfig{Mode: "LUMIS", UnitsPerJob: 1},
	}

	got := req.ToPlanRequest()
	lumis := got.Dataset.LumiEntries()
	if len(lumis) != 1 {
		t.Fatalf("Expected 1 lumi entry, got %d", len(lumis))
	}
	want := core.LumiRange{Run: 259721, Start: 1, End: 50, FileIndex: 0}
	if lumis[0] != want {
		t.Errorf("Expected lumi %+v, got %+v", want, lumis[0])
	}
}

func TestToJobInfo(t *testing.T) {
	job := core.JobSpec{
		Index:        2,
		PrimarySlice: []string{"/store/c.root"},
		LumiSlice:    []core.LumiRange{{Run: 1, Start: 1, End: 10}},
		OutputSuffix: core.OutputSuffixFor(2),
	}

	info := ToJobInfo(job, "ntuple.root")
	if info.NodeID != "job-000002" {
		t.Errorf("Expected node id job-000002, got %s", info.NodeID)
	}
	if info.Output != "ntuple_2.root" {
		t.Errorf("Expected output ntuple_2.root, got %s", info.Output)
	}
	if info.NumLumis != 1 {
		t.Errorf("Expected 1 lumi, got %d", info.NumLumis)
	}
}
