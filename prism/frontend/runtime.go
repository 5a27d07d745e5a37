// Copyright 2025 go-prism Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package frontend is the dispatch engine called by instrumented code.
//
// A Runtime holds the loaded backends in registration order. Every
// instrumented operation is fanned out to every backend implementing it;
// each one overwrites the result, so the last implementing backend in
// registration order decides the value. When no backend implements an
// operation the result is a quiet NaN (0 for comparisons).
//
// Goroutines have no thread-local storage, so each goroutine running
// instrumented code owns a Thread created by Runtime.NewThread:
//
//	reg := frontend.NewRegistry()
//	if err := reg.Load("prism", []string{"--mode=sr", "--seed=1"}); err != nil {
//	    log.Fatal(err)
//	}
//	rt := frontend.New(reg)
//	defer rt.Finalize()
//
//	t := rt.NewThread()
//	sum := 0.0
//	for _, x := range xs {
//	    sum = t.AddDouble(sum, x)
//	}
//
// Default builds a process-wide Runtime from the environment on first use.
package frontend

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ajroetker/go-prism/prism/contrib/workerpool"
	"github.com/ajroetker/go-prism/prism/ddebug"
	"github.com/ajroetker/go-prism/prism/interflop"
)

// Runtime dispatches instrumented operations to a frozen set of backends.
// It is safe for concurrent use; Threads are not.
type Runtime struct {
	backends []Entry
	opts     Options
	filter   *ddebug.Filter
	logger   *slog.Logger

	threads atomic.Uint64

	finalizeOnce sync.Once
	finalizeErr  error
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithOptions sets the feature flags.
func WithOptions(o Options) Option {
	return func(rt *Runtime) { rt.opts = o }
}

// WithFilter installs a delta-debug filter and enables DDebug.
func WithFilter(f *ddebug.Filter) Option {
	return func(rt *Runtime) {
		rt.filter = f
		rt.opts |= DDebug
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) { rt.logger = l }
}

// New freezes reg and returns a Runtime dispatching to its backends.
func New(reg *Registry, opts ...Option) *Runtime {
	reg.Freeze()
	rt := &Runtime{
		backends: reg.entries,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.opts.Has(DDebug) && rt.filter == nil {
		rt.filter = ddebug.NewFilterSets(nil, nil, nil)
	}
	rt.logger.Debug("runtime ready",
		"backends", len(rt.backends),
		"options", rt.opts.String())
	return rt
}

// Options returns the feature flags.
func (rt *Runtime) Options() Options {
	return rt.opts
}

// Backends returns the loaded backends in dispatch order.
func (rt *Runtime) Backends() []Entry {
	return rt.backends
}

// Filter returns the delta-debug filter, or nil when DDebug is off.
func (rt *Runtime) Filter() *ddebug.Filter {
	return rt.filter
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// NewThread returns the handle through which one goroutine runs
// instrumented code. Threads are ranked in creation order; with a chosen
// seed the rank decides the thread's random stream.
func (rt *Runtime) NewThread() *Thread {
	rank := rt.threads.Add(1) - 1
	t := &Thread{
		rt:    rt,
		ctxs:  make([]interflop.Context, len(rt.backends)),
		cells: make([]interflop.ThreadState, len(rt.backends)),
	}
	for i, b := range rt.backends {
		t.cells[i].Rank = rank
		t.ctxs[i] = interflop.Context{State: b.State, Thread: &t.cells[i]}
	}
	return t
}

// NewPool returns a worker pool whose workers each own a Thread, created in
// worker order.
func (rt *Runtime) NewPool(workers int) *workerpool.Pool[*Thread] {
	return workerpool.New(workers, func(int) *Thread {
		return rt.NewThread()
	})
}

// Finalize calls every backend's Finalize in registration order, then
// writes the delta-debug generate file. It runs once; later calls return
// the first result.
func (rt *Runtime) Finalize() error {
	rt.finalizeOnce.Do(func() {
		errs := finalizeEntries(rt.backends)
		if rt.filter != nil {
			if err := rt.filter.Finalize(); err != nil {
				errs = append(errs, err)
			}
			st := rt.filter.Stats()
			rt.logger.Debug("delta-debug",
				"bypassed", st.Bypassed,
				"instrumented", st.Instrumented,
				"generated", rt.filter.Generated().Len())
		}
		rt.finalizeErr = errors.Join(errs...)
	})
	return rt.finalizeErr
}
