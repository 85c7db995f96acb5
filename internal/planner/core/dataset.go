package core

import "slices"

// LumiRange selects a contiguous range of luminosity sections within a run.
// FileIndex points at the primary file covering the range, or -1 when the
// origin file is unknown.
type LumiRange struct {
	Run       int64
	Start     int64
	End       int64
	FileIndex int
}

// Dataset is an immutable, ordered view of the input files for one run.
// Secondary files, when present, pair positionally with primary files (the
// two-file solution). Lumi entries are optional and carry their own file
// attribution via LumiRange.FileIndex.
type Dataset struct {
	primary   []string
	secondary []string
	lumis     []LumiRange
}

// NewDataset copies its arguments, so later mutation of the caller's slices
// does not leak into the dataset.
func NewDataset(primary, secondary []string, lumis []LumiRange) *Dataset {
	return &Dataset{
		primary:   slices.Clone(primary),
		secondary: slices.Clone(secondary),
		lumis:     slices.Clone(lumis),
	}
}

// Validate checks the dataset shape invariants.
func (d *Dataset) Validate() error {
	if len(d.primary) == 0 {
		return ErrEmptyDataset
	}
	if len(d.secondary) > 0 && len(d.secondary) != len(d.primary) {
		return ErrShapeMismatch
	}
	return nil
}

// Len returns the number of addressable primary units.
func (d *Dataset) Len() int {
	return len(d.primary)
}

// NumLumis returns the number of lumi entries.
func (d *Dataset) NumLumis() int {
	return len(d.lumis)
}

func (d *Dataset) PrimaryFiles() []string {
	return slices.Clone(d.primary)
}

func (d *Dataset) SecondaryFiles() []string {
	return slices.Clone(d.secondary)
}

func (d *Dataset) LumiEntries() []LumiRange {
	return slices.Clone(d.lumis)
}
