package core

import (
	"fmt"
	"slices"
)

// MergeSpec is one bounded-fan-in merge: combine Inputs (1 <= len <=
// groupSize) into the single artifact named OutputID. Level 0 is the leaf
// outputs themselves; the first merge nodes sit at level 1.
type MergeSpec struct {
	Level    int
	Index    int
	Inputs   []string
	OutputID string
}

// MergeOutputID derives a merge artifact id from its level and position, so
// re-planning the same inputs names the same artifacts. Merge graph nodes
// reuse it as their node id.
func MergeOutputID(level, index int) string {
	return fmt.Sprintf("merge-l%d-%04d", level, index)
}

// MergePlanner generates merge levels lazily, one at a time. Each level only
// needs the previous level's output ids, so a large tree never has to be
// materialized to know its depth.
type MergePlanner struct {
	groupSize int
	leafCount int
	level     int
	current   []string
}

func NewMergePlanner(outputIDs []string, groupSize int) (*MergePlanner, error) {
	if len(outputIDs) == 0 {
		return nil, ErrNoOutputsToMerge
	}
	if groupSize < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidGroupSize, groupSize)
	}
	return &MergePlanner{
		groupSize: groupSize,
		leafCount: len(outputIDs),
		current:   slices.Clone(outputIDs),
	}, nil
}

// Depth returns ceil(log_groupSize(leafCount)): the number of merge levels
// the full tree will have. Zero when a single leaf is already the result.
func (p *MergePlanner) Depth() int {
	depth := 0
	for n := p.leafCount; n > 1; n = (n + p.groupSize - 1) / p.groupSize {
		depth++
	}
	return depth
}

// Done reports whether the remaining output list has collapsed to one
// artifact.
func (p *MergePlanner) Done() bool {
	return len(p.current) == 1
}

// NextLevel groups the current outputs into consecutive chunks of at most
// groupSize and advances the planner. The remainder group always sits at the
// end of the level; it is never redistributed. Returns nil once Done.
func (p *MergePlanner) NextLevel() []MergeSpec {
	if p.Done() {
		return nil
	}

	p.level++
	var specs []MergeSpec
	var next []string
	for start := 0; start < len(p.current); start += p.groupSize {
		end := min(start+p.groupSize, len(p.current))
		outputID := MergeOutputID(p.level, len(specs))
		specs = append(specs, MergeSpec{
			Level:    p.level,
			Index:    len(specs),
			Inputs:   slices.Clone(p.current[start:end]),
			OutputID: outputID,
		})
		next = append(next, outputID)
	}
	p.current = next
	return specs
}

// Result returns the final artifact id once planning is Done, or "" before
// that. For a single-leaf plan this is the leaf itself.
func (p *MergePlanner) Result() string {
	if !p.Done() {
		return ""
	}
	return p.current[0]
}

// MergeTree is a fully materialized merge plan.
type MergeTree struct {
	GroupSize int
	LeafCount int
	Levels    [][]MergeSpec
	Result    string
}

// PlanMerge reduces outputIDs down to one artifact through levels of
// bounded-fan-in merges. A single input yields a zero-level tree whose
// result is the input itself.
func PlanMerge(outputIDs []string, groupSize int) (*MergeTree, error) {
	planner, err := NewMergePlanner(outputIDs, groupSize)
	if err != nil {
		return nil, err
	}

	tree := &MergeTree{
		GroupSize: groupSize,
		LeafCount: len(outputIDs),
	}
	for !planner.Done() {
		tree.Levels = append(tree.Levels, planner.NextLevel())
	}
	tree.Result = planner.Result()
	return tree, nil
}

// Depth returns the number of merge levels.
func (t *MergeTree) Depth() int {
	return len(t.Levels)
}

// Graph expresses the tree as a DAG of MERGE nodes. A node's parents are the
// merge nodes producing its inputs; level-1 inputs come from outside the
// tree and contribute no edges. A zero-level tree yields an empty graph.
func (t *MergeTree) Graph() (*Graph, error) {
	var nodes []Node
	internal := make(map[string]bool)
	for _, level := range t.Levels {
		for i := range level {
			spec := level[i]
			var parents []string
			for _, input := range spec.Inputs {
				if internal[input] {
					parents = append(parents, input)
				}
			}
			nodes = append(nodes, Node{
				ID:      spec.OutputID,
				Kind:    NodeMerge,
				Merge:   &spec,
				Parents: parents,
			})
			internal[spec.OutputID] = true
		}
	}
	return newGraph(nodes)
}
