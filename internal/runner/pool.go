package runner

import "sync"

type task func()

// pool is a fixed-size worker pool. Submit blocks when all workers are busy,
// which bounds the number of node processes running at once.
type pool struct {
	numWorkers int
	tasks      chan task
	wg         sync.WaitGroup
}

func newPool(numWorkers int) *pool {
	return &pool{
		numWorkers: numWorkers,
		tasks:      make(chan task),
	}
}

func (p *pool) Start() {
	for range p.numWorkers {
		p.wg.Go(func() {
			for t := range p.tasks {
				t()
			}
		})
	}
}

func (p *pool) Submit(t task) {
	p.tasks <- t
}

func (p *pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}
