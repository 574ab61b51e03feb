// Package hservepool provides the bounded worker pool behind the server's
// pooled concurrency mode.  Instead of spawning a goroutine per accepted
// connection, the accept loop submits work to a fixed set of workers over a
// bounded queue, which caps both concurrency and memory under load.
package hservepool

import (
	"errors"
	"runtime"
	"sync"
)

var (
	// ErrClosed is returned by Submit and TrySubmit after Close has been called.
	ErrClosed = errors.New("the pool is closed")

	// ErrSaturated is returned by TrySubmit when the queue is full.
	ErrSaturated = errors.New("the pool queue is full")
)

// Task is a unit of work executed on a pool worker.
type Task func()

// Pool runs tasks on a fixed number of workers fed by a bounded queue.
// Create instances with New.
type Pool struct {
	tasks chan Task

	mu     sync.RWMutex
	closed bool

	workers sync.WaitGroup
}

// New creates a pool with the given worker count and queue capacity.
// Non-positive workers default to runtime.GOMAXPROCS(0); non-positive queue
// defaults to the worker count.  The workers start immediately.
func New(workers, queue int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	if queue <= 0 {
		queue = workers
	}

	p := &Pool{
		tasks: make(chan Task, queue),
	}

	p.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}

	return p
}

func (p *Pool) work() {
	defer p.workers.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit enqueues a task, blocking while the queue is full.  It returns
// ErrClosed once Close has been called.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	p.tasks <- task
	return nil
}

// TrySubmit enqueues a task without blocking.  It returns ErrSaturated when
// the queue is full and ErrClosed once Close has been called.
func (p *Pool) TrySubmit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrSaturated
	}
}

// Close stops accepting tasks, drains the queue, and waits for all workers
// to finish.  Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	alreadyClosed := p.closed
	p.closed = true
	if !alreadyClosed {
		close(p.tasks)
	}
	p.mu.Unlock()

	p.Wait()
}

// Wait blocks until all workers have exited.  Workers exit once Close has
// been called and the queue has drained.
func (p *Pool) Wait() {
	p.workers.Wait()
}
