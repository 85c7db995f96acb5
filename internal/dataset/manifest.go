package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mkovacev/gridplan/internal/planner/core"
)

// Manifest is the on-disk dataset description: explicit file entries,
// optionally glob patterns to expand, and optional lumi filtering. JSON
// manifests parse too since JSON is a YAML subset.
type Manifest struct {
	Name     string      `yaml:"name"`
	Files    []FileEntry `yaml:"files"`
	Patterns []string    `yaml:"patterns"`
	LumiMask string      `yaml:"lumiMask"`
	RunRange string      `yaml:"runRange"`

	dir string
}

// FileEntry describes one primary file, its optional paired secondary file,
// and the lumi sections it contains.
type FileEntry struct {
	URI       string      `yaml:"uri"`
	Secondary string      `yaml:"secondary"`
	Lumis     []LumiEntry `yaml:"lumis"`
}

type LumiEntry struct {
	Run   int64 `yaml:"run"`
	Start int64 `yaml:"start"`
	End   int64 `yaml:"end"`
}

// Load reads a manifest file. Relative paths inside the manifest (the lumi
// mask) resolve against the manifest's own directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// Build normalizes the manifest into an immutable Dataset: patterns are
// expanded, per-file lumis flattened in file order, and the run-range and
// lumi-mask filters applied. Files whose declared lumis are filtered away
// entirely are dropped, and lumi file attribution is reindexed accordingly.
func (m *Manifest) Build() (*core.Dataset, error) {
	entries := make([]FileEntry, len(m.Files))
	copy(entries, m.Files)

	if len(m.Patterns) > 0 {
		found, err := FindFiles(m.Patterns)
		if err != nil {
			return nil, fmt.Errorf("expanding patterns: %w", err)
		}
		for _, uri := range found {
			entries = append(entries, FileEntry{URI: uri})
		}
	}

	withSecondary := 0
	for _, entry := range entries {
		if entry.Secondary != "" {
			withSecondary++
		}
	}
	if withSecondary > 0 && withSecondary != len(entries) {
		return nil, fmt.Errorf("%w: %d of %d files declare a secondary file",
			core.ErrShapeMismatch, withSecondary, len(entries))
	}

	var lumis []core.LumiRange
	for i, entry := range entries {
		for _, le := range entry.Lumis {
			if le.Start > le.End {
				return nil, fmt.Errorf("file %s: inverted lumi range [%d, %d] in run %d",
					entry.URI, le.Start, le.End, le.Run)
			}
			lumis = append(lumis, core.LumiRange{
				Run:       le.Run,
				Start:     le.Start,
				End:       le.End,
				FileIndex: i,
			})
		}
	}

	filtered := false
	if m.RunRange != "" {
		runs, err := ParseRunRange(m.RunRange)
		if err != nil {
			return nil, err
		}
		lumis = FilterRuns(lumis, runs)
		filtered = true
	}
	if m.LumiMask != "" {
		maskPath := m.LumiMask
		if !filepath.IsAbs(maskPath) && m.dir != "" {
			maskPath = filepath.Join(m.dir, maskPath)
		}
		mask, err := LoadLumiMask(maskPath)
		if err != nil {
			return nil, err
		}
		lumis = mask.Filter(lumis)
		filtered = true
	}

	if filtered {
		entries, lumis = dropEmptyFiles(entries, lumis)
	}

	primary := make([]string, 0, len(entries))
	var secondary []string
	for _, entry := range entries {
		primary = append(primary, entry.URI)
		if entry.Secondary != "" {
			secondary = append(secondary, entry.Secondary)
		}
	}

	ds := core.NewDataset(primary, secondary, lumis)
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// dropEmptyFiles removes files that declared lumis but have none left after
// filtering, then rewrites the FileIndex attribution of the survivors.
// Files without any declared lumis are kept as-is.
func dropEmptyFiles(entries []FileEntry, lumis []core.LumiRange) ([]FileEntry, []core.LumiRange) {
	remaining := make(map[int]bool)
	for _, lr := range lumis {
		remaining[lr.FileIndex] = true
	}

	newIndex := make(map[int]int, len(entries))
	var kept []FileEntry
	for i, entry := range entries {
		if len(entry.Lumis) > 0 && !remaining[i] {
			continue
		}
		newIndex[i] = len(kept)
		kept = append(kept, entry)
	}

	reindexed := make([]core.LumiRange, 0, len(lumis))
	for _, lr := range lumis {
		lr.FileIndex = newIndex[lr.FileIndex]
		reindexed = append(reindexed, lr)
	}
	return kept, reindexed
}
