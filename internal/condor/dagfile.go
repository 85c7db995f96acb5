// Package condor serializes submission graphs into HTCondor DAGMan
// descriptions. Only the generic node/edge shape is assumed: every node gets
// a JOB line, payload nodes get VARS, and edges become PARENT/CHILD lines.
package condor

import (
	"fmt"
	"io"
	"strings"

	"github.com/mkovacev/gridplan/internal/planner/core"
)

// DAGOptions controls how a graph is written out.
type DAGOptions struct {
	// SubmitFile is the submit description every node references.
	SubmitFile string
	// Retries per node; zero omits RETRY lines.
	Retries int
	// StatusFile enables a NODE_STATUS_FILE line, refreshed every
	// StatusInterval seconds.
	StatusFile     string
	StatusInterval int
}

// WriteDAG writes the graph as a DAGMan description. Output is line-for-line
// deterministic: nodes appear in graph (topological) order and all VARS are
// derived from node payloads.
func WriteDAG(w io.Writer, g *core.Graph, opts DAGOptions) error {
	for _, node := range g.Nodes() {
		if _, err := fmt.Fprintf(w, "JOB %s %s\n", node.ID, opts.SubmitFile); err != nil {
			return err
		}
		if vars := nodeVars(node); vars != "" {
			if _, err := fmt.Fprintf(w, "VARS %s %s\n", node.ID, vars); err != nil {
				return err
			}
		}
		if opts.Retries > 0 && node.Kind != core.NodeSetup {
			if _, err := fmt.Fprintf(w, "RETRY %s %d\n", node.ID, opts.Retries); err != nil {
				return err
			}
		}
	}

	for _, node := range g.Nodes() {
		if len(node.Parents) == 0 {
			continue
		}
		line := fmt.Sprintf("PARENT %s CHILD %s\n", strings.Join(node.Parents, " "), node.ID)
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}

	if opts.StatusFile != "" {
		interval := opts.StatusInterval
		if interval <= 0 {
			interval = 30
		}
		if _, err := fmt.Fprintf(w, "NODE_STATUS_FILE %s %d\n", opts.StatusFile, interval); err != nil {
			return err
		}
	}
	return nil
}

// nodeVars renders the macros a node hands to its submit description.
func nodeVars(node core.Node) string {
	switch node.Kind {
	case core.NodeJob:
		return fmt.Sprintf("index=%q suffix=%q", fmt.Sprint(node.Job.Index), node.Job.OutputSuffix)
	case core.NodeMerge:
		return fmt.Sprintf("output=%q inputs=%q",
			node.Merge.OutputID, strings.Join(node.Merge.Inputs, ","))
	default:
		return fmt.Sprintf("kind=%q", string(node.Kind))
	}
}
