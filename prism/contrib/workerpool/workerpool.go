// Copyright 2025 The go-prism Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a persistent worker pool whose workers each
// own a private state value, such as the per-goroutine handle of the
// instrumentation runtime.
//
// ParallelFor always hands chunk i of a range to worker i, so with a fixed
// worker count every chunk is processed with the same state on every run.
// Combined with seeded per-thread random streams this makes parallel noisy
// computations reproducible:
//
//	pool := workerpool.New(4, func(i int) *frontend.Thread {
//	    return rt.NewThread()
//	})
//	defer pool.Close()
//
//	pool.ParallelFor(len(xs), func(t *frontend.Thread, start, end int) {
//	    for i := start; i < end; i++ {
//	        ys[i] = t.MulDouble(xs[i], xs[i])
//	    }
//	})
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool. Workers are spawned once at creation,
// each bound to its own state and its own work channel.
type Pool[S any] struct {
	states    []S
	workCs    []chan workItem[S]
	closeOnce sync.Once
	closed    atomic.Bool
}

// workItem is one chunk of a parallel operation.
type workItem[S any] struct {
	fn      func(state S)
	barrier *sync.WaitGroup
}

// New creates a pool of numWorkers workers. newState is called once per
// worker, in worker order, before any worker starts. If numWorkers <= 0,
// uses GOMAXPROCS.
func New[S any](numWorkers int, newState func(i int) S) *Pool[S] {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool[S]{
		states: make([]S, numWorkers),
		workCs: make([]chan workItem[S], numWorkers),
	}
	for i := range numWorkers {
		p.states[i] = newState(i)
		p.workCs[i] = make(chan workItem[S], 2)
	}
	for i := range numWorkers {
		go p.worker(i)
	}
	return p
}

func (p *Pool[S]) worker(i int) {
	for item := range p.workCs[i] {
		item.fn(p.states[i])
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool[S]) NumWorkers() int {
	return len(p.states)
}

// State returns the state of worker i.
func (p *Pool[S]) State(i int) S {
	return p.states[i]
}

// Close shuts down the pool. Pending work completes. Calling Close multiple
// times is safe.
func (p *Pool[S]) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		for _, c := range p.workCs {
			close(c)
		}
	})
}

// ParallelFor splits [0, n) into contiguous chunks and runs fn on chunk i
// with the state of worker i. Blocks until all chunks complete.
//
// The split depends only on n and the worker count. A closed pool runs the
// whole range on the caller's goroutine with the state of worker 0.
func (p *Pool[S]) ParallelFor(n int, fn func(state S, start, end int)) {
	if n <= 0 {
		return
	}

	if p.closed.Load() {
		fn(p.states[0], 0, n)
		return
	}

	workers := min(len(p.states), n)
	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for i := range workers {
		start := i * chunkSize
		end := min(start+chunkSize, n)
		if start >= n {
			break
		}
		wg.Add(1)
		p.workCs[i] <- workItem[S]{
			fn: func(state S) {
				fn(state, start, end)
			},
			barrier: &wg,
		}
	}
	wg.Wait()
}

// ParallelForAtomic runs fn for each index in [0, n), with workers pulling
// indices from a shared counter. It balances uneven work better than
// ParallelFor, but which worker's state sees which index varies between
// runs.
func (p *Pool[S]) ParallelForAtomic(n int, fn func(state S, i int)) {
	if n <= 0 {
		return
	}

	if p.closed.Load() {
		for i := range n {
			fn(p.states[0], i)
		}
		return
	}

	workers := min(len(p.states), n)

	var nextIdx atomic.Int32
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := range workers {
		p.workCs[w] <- workItem[S]{
			fn: func(state S) {
				for {
					idx := int(nextIdx.Add(1)) - 1
					if idx >= n {
						return
					}
					fn(state, idx)
				}
			},
			barrier: &wg,
		}
	}

	wg.Wait()
}
