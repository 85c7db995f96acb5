package runner

import (
	"container/heap"
	"errors"
	"sync"

	"github.com/mkovacev/gridplan/internal/planner/core"
)

// ErrQueueEmpty is returned when Pop() is called on an empty queue.
var ErrQueueEmpty = errors.New("node queue is empty")

// nodeQueue is a thread-safe min-heap of runnable graph nodes, popping the
// node with the lowest topological rank first. Nodes with the same rank are
// served in FIFO order, so execution order is reproducible for a given graph.
type nodeQueue struct {
	pq       nodeHeap
	mu       sync.RWMutex
	sequence uint64
}

func newNodeQueue() *nodeQueue {
	pq := make(nodeHeap, 0)
	heap.Init(&pq)
	return &nodeQueue{pq: pq}
}

func (nq *nodeQueue) Push(node core.Node, rank int) {
	nq.mu.Lock()
	defer nq.mu.Unlock()

	heap.Push(&nq.pq, &queued{
		node:     node,
		rank:     rank,
		sequence: nq.sequence,
	})
	nq.sequence++
}

func (nq *nodeQueue) Pop() (core.Node, error) {
	nq.mu.Lock()
	defer nq.mu.Unlock()

	if nq.pq.Len() == 0 {
		return core.Node{}, ErrQueueEmpty
	}
	it := heap.Pop(&nq.pq).(*queued)
	return it.node, nil
}

func (nq *nodeQueue) Len() int {
	nq.mu.RLock()
	defer nq.mu.RUnlock()
	return nq.pq.Len()
}

// queued wraps a node with its rank, sequence number, and index in the heap.
type queued struct {
	node     core.Node
	rank     int
	sequence uint64 // Insertion order for FIFO within same rank
	index    int    // Required by heap.Interface
}

// nodeHeap satisfies heap.Interface.
type nodeHeap []*queued

func (pq nodeHeap) Len() int {
	return len(pq)
}

func (pq nodeHeap) Less(i, j int) bool {
	if pq[i].rank != pq[j].rank {
		return pq[i].rank < pq[j].rank
	}
	return pq[i].sequence < pq[j].sequence
}

func (pq nodeHeap) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *nodeHeap) Push(x any) {
	n := len(*pq)
	it := x.(*queued)
	it.index = n
	*pq = append(*pq, it)
}

func (pq *nodeHeap) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*pq = old[0 : n-1]
	return it
}
