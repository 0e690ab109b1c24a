// Package parallel provides the worker pool behind row-parallel frame
// rendering.
//
// A Pool keeps a fixed set of goroutines alive across frames so the
// per-dispatch cost is one channel send per worker rather than a
// goroutine spawn per scanline. Work items pull indices from a shared
// atomic counter, which self-balances when some rows iterate far
// deeper than others (the usual case near the set boundary).
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed-size worker pool executing indexed work items.
//
// Pool is safe for concurrent use; Run may be called from multiple
// goroutines at once (the interactive loop and a capture goroutine
// share one pool).
type Pool struct {
	workers int
	jobs    chan func()
	wg      sync.WaitGroup
	closed  atomic.Bool
}

// New creates a pool with the given number of workers.
// If workers is zero or negative, GOMAXPROCS is used.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: workers,
		jobs:    make(chan func()),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for fn := range p.jobs {
		fn()
	}
}

// Run invokes fn(i) for every i in [0, n), distributing indices across
// the pool's workers, and returns when all invocations are done.
// Indices are claimed from a shared counter, so uneven per-index cost
// balances automatically.
//
// fn must be safe for concurrent invocation with distinct indices.
func (p *Pool) Run(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if n == 1 || p.workers == 1 || p.closed.Load() {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var next atomic.Int64
	var done sync.WaitGroup

	k := p.workers
	if k > n {
		k = n
	}
	done.Add(k)
	body := func() {
		defer done.Done()
		for {
			i := int(next.Add(1)) - 1
			if i >= n {
				return
			}
			fn(i)
		}
	}
	for i := 0; i < k; i++ {
		p.jobs <- body
	}
	done.Wait()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// Close stops the workers after in-flight work finishes. Run calls
// issued after Close execute inline on the caller. Close is safe to
// call multiple times.
func (p *Pool) Close() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.jobs)
		p.wg.Wait()
	}
}
