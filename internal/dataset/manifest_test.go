package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkovacev/gridplan/internal/planner/core"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestManifest_LoadAndBuild(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
name: ttbar-2026B
files:
  - uri: /store/data_0.root
    secondary: /store/raw_0.root
    lumis:
      - {run: 100, start: 1, end: 20}
      - {run: 100, start: 21, end: 40}
  - uri: /store/data_1.root
    secondary: /store/raw_1.root
    lumis:
      - {run: 101, start: 1, end: 10}
`)

	m, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "ttbar-2026B", m.Name)

	ds, err := m.Build()
	require.NoError(t, err)
	require.Equal(t, []string{"/store/data_0.root", "/store/data_1.root"}, ds.PrimaryFiles())
	require.Equal(t, []string{"/store/raw_0.root", "/store/raw_1.root"}, ds.SecondaryFiles())

	lumis := ds.LumiEntries()
	require.Len(t, lumis, 3)
	require.Equal(t, core.LumiRange{Run: 101, Start: 1, End: 10, FileIndex: 1}, lumis[2])
}

func TestManifest_Build_PartialSecondary(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
files:
  - uri: /store/data_0.root
    secondary: /store/raw_0.root
  - uri: /store/data_1.root
`)

	m, err := Load(path)
	require.NoError(t, err)

	_, err = m.Build()
	require.ErrorIs(t, err, core.ErrShapeMismatch)
}

func TestManifest_Build_Patterns(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.root", "a.root"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	path := writeManifest(t, dir, `
patterns:
  - `+filepath.Join(dir, "*.root")+`
`)

	m, err := Load(path)
	require.NoError(t, err)

	ds, err := m.Build()
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "a.root"), filepath.Join(dir, "b.root")}, ds.PrimaryFiles())
}

func TestManifest_Build_LumiMaskDropsAndReindexes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden.json"),
		[]byte(`{"101": [[1, 100]]}`), 0o644))

	path := writeManifest(t, dir, `
lumiMask: golden.json
files:
  - uri: /store/data_0.root
    lumis:
      - {run: 100, start: 1, end: 20}
  - uri: /store/data_1.root
    lumis:
      - {run: 101, start: 1, end: 10}
`)

	m, err := Load(path)
	require.NoError(t, err)

	ds, err := m.Build()
	require.NoError(t, err)

	// File 0 has no lumis in the mask and is dropped; the surviving file's
	// lumi attribution is reindexed to position 0.
	require.Equal(t, []string{"/store/data_1.root"}, ds.PrimaryFiles())
	lumis := ds.LumiEntries()
	require.Len(t, lumis, 1)
	require.Equal(t, 0, lumis[0].FileIndex)
	require.Equal(t, int64(101), lumis[0].Run)
}

func TestManifest_Build_RunRange(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
runRange: "101-102"
files:
  - uri: /store/data_0.root
    lumis:
      - {run: 100, start: 1, end: 20}
      - {run: 101, start: 1, end: 20}
`)

	m, err := Load(path)
	require.NoError(t, err)

	ds, err := m.Build()
	require.NoError(t, err)
	require.Len(t, ds.LumiEntries(), 1)
	require.Equal(t, int64(101), ds.LumiEntries()[0].Run)
}

func TestManifest_Build_InvertedLumi(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
files:
  - uri: /store/data_0.root
    lumis:
      - {run: 100, start: 30, end: 20}
`)

	m, err := Load(path)
	require.NoError(t, err)

	_, err = m.Build()
	require.Error(t, err)
}

func TestManifest_Build_Empty(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `name: empty`)

	m, err := Load(path)
	require.NoError(t, err)

	_, err = m.Build()
	require.ErrorIs(t, err, core.ErrEmptyDataset)
}
