package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkovacev/gridplan/internal/planner/core"
	"github.com/mkovacev/gridplan/internal/worker"
)

// writeScript drops an executable shell script into dir.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

const jobScript = `out=""
idx=""
while [ "$#" -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift 2 ;;
    -i) idx="$2"; shift 2 ;;
    *) shift ;;
  esac
done
echo "job $idx" > "$out"
`

const mergeScript = `out="$1"
shift
cat "$@" > "$out"
`

func buildJobs(t *testing.T, n int) []core.JobSpec {
	t.Helper()
	jobs := make([]core.JobSpec, 0, n)
	for i := range n {
		jobs = append(jobs, core.JobSpec{
			Index:        i,
			PrimarySlice: []string{fmt.Sprintf("/store/file_%d.root", i)},
			OutputSuffix: core.OutputSuffixFor(i),
		})
	}
	return jobs
}

func TestNodeQueue(t *testing.T) {
	q := newNodeQueue()
	q.Push(core.Node{ID: "c"}, 3)
	q.Push(core.Node{ID: "a"}, 1)
	q.Push(core.Node{ID: "b1"}, 2)
	q.Push(core.Node{ID: "b2"}, 2)
	require.Equal(t, 4, q.Len())

	var order []string
	for q.Len() > 0 {
		node, err := q.Pop()
		require.NoError(t, err)
		order = append(order, node.ID)
	}
	require.Equal(t, []string{"a", "b1", "b2", "c"}, order)

	_, err := q.Pop()
	require.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRunner_RunsJobGraph(t *testing.T) {
	dir := t.TempDir()
	exe := writeScript(t, dir, "job.sh", jobScript)

	jobs := buildJobs(t, 3)
	graph, err := core.Build(jobs)
	require.NoError(t, err)

	r := &Runner{
		Contract: worker.Contract{
			Executable: exe,
			OutputDir:  dir,
			OutputBase: "output.root",
		},
		Workers: 2,
	}
	require.NoError(t, r.Run(context.Background(), graph))

	for i := range jobs {
		path := filepath.Join(dir, fmt.Sprintf("output_%d.root", i))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("job %d\n", i), string(data))
	}
}

func TestRunner_FailureBlocksDescendants(t *testing.T) {
	dir := t.TempDir()
	exe := writeScript(t, dir, "job.sh",
		jobScript+`if [ "$idx" = "1" ]; then exit 3; fi`+"\n")

	graph, err := core.Build(buildJobs(t, 3))
	require.NoError(t, err)

	r := &Runner{
		Contract: worker.Contract{
			Executable: exe,
			OutputDir:  dir,
			OutputBase: "output.root",
		},
		Workers: 1,
	}
	err = r.Run(context.Background(), graph)
	require.Error(t, err)

	var execErr *core.NodeExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, core.JobNodeID(1), execErr.NodeID)
	require.Equal(t, 3, execErr.ExitCode)

	// Siblings of the failed job still run.
	require.FileExists(t, filepath.Join(dir, "output_0.root"))
	require.FileExists(t, filepath.Join(dir, "output_2.root"))
}

func TestRunner_RunsMergeGraph(t *testing.T) {
	dir := t.TempDir()
	tool := writeScript(t, dir, "merge.sh", mergeScript)

	leaves := make([]string, 0, 5)
	for i := range 5 {
		name := fmt.Sprintf("output_%d.root", i)
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, name), []byte(fmt.Sprintf("part %d\n", i)), 0o644))
		leaves = append(leaves, name)
	}

	tree, err := core.PlanMerge(leaves, 2)
	require.NoError(t, err)
	graph, err := tree.Graph()
	require.NoError(t, err)

	r := &Runner{
		Contract: worker.Contract{
			MergeTool:  tool,
			OutputDir:  dir,
			OutputBase: "output.root",
		},
		Workers: 2,
	}
	require.NoError(t, r.Run(context.Background(), graph))

	data, err := os.ReadFile(filepath.Join(dir, tree.Result+".root"))
	require.NoError(t, err)
	for i := range 5 {
		require.Contains(t, string(data), fmt.Sprintf("part %d", i))
	}
}

func TestRunner_MissingExecutable(t *testing.T) {
	dir := t.TempDir()
	graph, err := core.Build(buildJobs(t, 1))
	require.NoError(t, err)

	r := &Runner{
		Contract: worker.Contract{
			Executable: filepath.Join(dir, "does-not-exist"),
			OutputDir:  dir,
			OutputBase: "output.root",
		},
	}
	err = r.Run(context.Background(), graph)
	require.Error(t, err)
	require.Contains(t, err.Error(), core.JobNodeID(0))
	require.NoFileExists(t, filepath.Join(dir, "output_0.root"))
}
