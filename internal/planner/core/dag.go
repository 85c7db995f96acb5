package core

import "fmt"

type NodeKind string

const (
	NodeSetup    NodeKind = "SETUP"
	NodeJob      NodeKind = "JOB"
	NodeFinalize NodeKind = "FINALIZE"
	NodeMerge    NodeKind = "MERGE"
)

const (
	SetupNodeID    = "setup"
	FinalizeNodeID = "finalize"
)

// JobNodeID derives a node id from a job index. Ids are a function of the
// index alone so resubmitting after a partial failure reproduces them.
func JobNodeID(index int) string {
	return fmt.Sprintf("job-%06d", index)
}

// Node is one vertex of a submission graph. Exactly one of Job and Merge is
// set for JOB and MERGE nodes; SETUP and FINALIZE carry no payload.
type Node struct {
	ID      string
	Kind    NodeKind
	Job     *JobSpec
	Merge   *MergeSpec
	Parents []string
}

// Graph is an immutable DAG in topological node order. Callers must not
// modify the slices it hands out.
type Graph struct {
	nodes []Node
	index map[string]int
}

func newGraph(nodes []Node) (*Graph, error) {
	index := make(map[string]int, len(nodes))
	for i, node := range nodes {
		if _, exists := index[node.ID]; exists {
			return nil, fmt.Errorf("duplicate node id %q", node.ID)
		}
		// Nodes are appended parents-first, so an unknown parent here
		// would mean a forward or dangling edge.
		for _, parent := range node.Parents {
			if _, ok := index[parent]; !ok {
				return nil, fmt.Errorf("node %q references unknown parent %q", node.ID, parent)
			}
		}
		index[node.ID] = i
	}
	return &Graph{nodes: nodes, index: index}, nil
}

// Build fans the jobs out as a flat DAG: one setup node, one job node per
// JobSpec (child of setup), and one finalize node depending on every job.
// It is pure: identical job lists yield identical graphs.
func Build(jobs []JobSpec) (*Graph, error) {
	if len(jobs) == 0 {
		return nil, fmt.Errorf("cannot build graph: no jobs")
	}

	nodes := make([]Node, 0, len(jobs)+2)
	nodes = append(nodes, Node{ID: SetupNodeID, Kind: NodeSetup})

	finalizeParents := make([]string, 0, len(jobs))
	for i := range jobs {
		job := jobs[i]
		id := JobNodeID(job.Index)
		nodes = append(nodes, Node{
			ID:      id,
			Kind:    NodeJob,
			Job:     &job,
			Parents: []string{SetupNodeID},
		})
		finalizeParents = append(finalizeParents, id)
	}

	nodes = append(nodes, Node{
		ID:      FinalizeNodeID,
		Kind:    NodeFinalize,
		Parents: finalizeParents,
	})
	return newGraph(nodes)
}

// Nodes returns all nodes in topological order.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node looks a node up by id.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Jobs returns the JOB nodes in index order.
func (g *Graph) Jobs() []Node {
	var jobs []Node
	for _, node := range g.nodes {
		if node.Kind == NodeJob {
			jobs = append(jobs, node)
		}
	}
	return jobs
}
