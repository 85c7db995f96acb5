package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/mkovacev/gridplan/internal/planner/core"
	"github.com/mkovacev/gridplan/internal/shared/logging"
	"github.com/mkovacev/gridplan/internal/worker"
)

// Runner executes a submission graph on the local host with a bounded worker
// pool. Nodes run only after all their parents succeeded; descendants of a
// failed node are skipped and reported as blocked.
type Runner struct {
	Contract worker.Contract
	Workers  int
	Logger   logging.Logger

	// Stdout and Stderr receive the output of node processes. They default
	// to the runner process's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

type result struct {
	id  string
	err error
}

// Run executes every node of the graph, honoring edge order, and returns the
// joined errors of all failed nodes. A nil error means the whole graph ran.
func (r *Runner) Run(ctx context.Context, graph *core.Graph) error {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	if r.Logger == nil {
		r.Logger = logging.New(io.Discard, 0, "json")
	}

	nodes := graph.Nodes()
	rank := make(map[string]int, len(nodes))
	indegree := make(map[string]int, len(nodes))
	children := make(map[string][]string, len(nodes))
	for i, node := range nodes {
		rank[node.ID] = i
		indegree[node.ID] = len(node.Parents)
		for _, parent := range node.Parents {
			children[parent] = append(children[parent], node.ID)
		}
	}

	queue := newNodeQueue()
	for _, node := range nodes {
		if indegree[node.ID] == 0 {
			queue.Push(node, rank[node.ID])
		}
	}

	// Buffered so workers never block reporting while the dispatcher is
	// itself blocked submitting to a full pool.
	results := make(chan result, len(nodes))
	pool := newPool(workers)
	pool.Start()
	defer pool.Close()

	failed := make(map[string]bool)
	release := func(id string) {
		for _, child := range children[id] {
			indegree[child]--
			if indegree[child] == 0 {
				node, _ := graph.Node(child)
				queue.Push(node, rank[child])
			}
		}
	}

	var errs []error
	running := 0
	for queue.Len() > 0 || running > 0 {
		for queue.Len() > 0 {
			node, err := queue.Pop()
			if err != nil {
				break
			}
			if blocked := failedParent(node, failed); blocked != "" {
				r.Logger.Warn("skipping node with failed ancestor",
					"node", node.ID, "failed_parent", blocked)
				failed[node.ID] = true
				release(node.ID)
				continue
			}
			running++
			pool.Submit(func() {
				results <- result{id: node.ID, err: r.execute(ctx, node)}
			})
		}
		if running == 0 {
			break
		}

		res := <-results
		running--
		if res.err != nil {
			r.Logger.Error("node failed", "node", res.id, "error", res.err)
			failed[res.id] = true
			errs = append(errs, res.err)
		}
		release(res.id)
	}

	return errors.Join(errs...)
}

func (r *Runner) execute(ctx context.Context, node core.Node) error {
	argv, err := r.Contract.Command(node)
	if err != nil {
		return fmt.Errorf("resolving command for node %q: %w", node.ID, err)
	}
	if len(argv) == 0 {
		r.Logger.Debug("bookkeeping node", "node", node.ID)
		return nil
	}

	r.Logger.Info("running node", "node", node.ID, "kind", string(node.Kind))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &core.NodeExecutionError{NodeID: node.ID, ExitCode: exitErr.ExitCode()}
		}
		return fmt.Errorf("starting node %q: %w", node.ID, err)
	}
	return nil
}

// failedParent returns the id of a failed or skipped parent, or "" when all
// parents succeeded.
func failedParent(node core.Node, failed map[string]bool) string {
	for _, parent := range node.Parents {
		if failed[parent] {
			return parent
		}
	}
	return ""
}
