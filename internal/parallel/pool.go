// Package parallel provides the bounded worker pool the field kernel
// uses to spread grid slabs over CPUs.
package parallel

import (
	"runtime"
	"sync"
)

// Pool runs submitted tasks on a fixed number of worker goroutines.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

// New starts a pool with the given worker count. A count of zero or
// less uses GOMAXPROCS.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{tasks: make(chan func(), workers*2)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit queues a task. It blocks when all workers are busy and the
// queue is full. Submit must not be called after Close.
func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

// Close stops accepting tasks and blocks until every submitted task
// has finished.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}
