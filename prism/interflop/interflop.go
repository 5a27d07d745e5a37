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

// Package interflop defines the contract between the dispatch frontend and
// the noise-injection backends.
//
// A backend is a set of function slots, one per operation and precision,
// created once by the backend's InitFunc together with an opaque state. A
// nil slot means the backend does not implement that operation and the
// frontend skips it. Every slot receives the operands, a pointer to the
// result slot, and a Context carrying the backend state and the calling
// thread's private cell:
//
//	func add(a, b float64, res *float64, ctx *interflop.Context) {
//	    *res = a + b
//	}
//
//	func initIEEE(args []string) (*interflop.Ops, any, error) {
//	    return &interflop.Ops{AddDouble: add}, nil, nil
//	}
//
//	func init() {
//	    interflop.Register("ieee", initIEEE)
//	}
//
// Slots are called concurrently from every thread executing instrumented
// code. Shared backend state must be safe for concurrent use; per-thread
// data belongs in Context.Thread.
package interflop

import "github.com/ajroetker/go-prism/prism/rng"

// InitFunc creates a backend from its configuration arguments. It is called
// once per loaded backend at process start.
type InitFunc func(args []string) (*Ops, any, error)

// Ops is the operation table of a backend.
type Ops struct {
	AddFloat func(a, b float32, res *float32, ctx *Context)
	SubFloat func(a, b float32, res *float32, ctx *Context)
	MulFloat func(a, b float32, res *float32, ctx *Context)
	DivFloat func(a, b float32, res *float32, ctx *Context)

	AddDouble func(a, b float64, res *float64, ctx *Context)
	SubDouble func(a, b float64, res *float64, ctx *Context)
	MulDouble func(a, b float64, res *float64, ctx *Context)
	DivDouble func(a, b float64, res *float64, ctx *Context)

	SqrtFloat  func(a float32, res *float32, ctx *Context)
	SqrtDouble func(a float64, res *float64, ctx *Context)

	// CmpFloat and CmpDouble store 1 in *res when the predicate holds and
	// 0 otherwise.
	CmpFloat  func(p Predicate, a, b float32, res *int, ctx *Context)
	CmpDouble func(p Predicate, a, b float64, res *int, ctx *Context)

	FMAFloat  func(a, b, c float32, res *float32, ctx *Context)
	FMADouble func(a, b, c float64, res *float64, ctx *Context)

	CastDoubleToFloat func(a float64, res *float32, ctx *Context)

	// Vector slots write len(res) lanes. a, b and c hold at least as many.
	AddFloatVec func(a, b, res []float32, ctx *Context)
	SubFloatVec func(a, b, res []float32, ctx *Context)
	MulFloatVec func(a, b, res []float32, ctx *Context)
	DivFloatVec func(a, b, res []float32, ctx *Context)
	FMAFloatVec func(a, b, c, res []float32, ctx *Context)

	AddDoubleVec func(a, b, res []float64, ctx *Context)
	SubDoubleVec func(a, b, res []float64, ctx *Context)
	MulDoubleVec func(a, b, res []float64, ctx *Context)
	DivDoubleVec func(a, b, res []float64, ctx *Context)
	FMADoubleVec func(a, b, c, res []float64, ctx *Context)

	// HandleCall receives out-of-band control requests. Backends ignore
	// opcodes they do not act on.
	HandleCall func(op Opcode, state any, args []any) error

	// EnterFunction and ExitFunction are called around instrumented
	// functions when function-level instrumentation is enabled.
	EnterFunction func(stack *FunctionStack, ctx *Context)
	ExitFunction  func(stack *FunctionStack, ctx *Context)

	// Finalize is called once at exit and releases backend resources.
	Finalize func(state any) error
}

// Context is passed to every operation slot.
type Context struct {
	// State is the backend state returned by its InitFunc.
	State any

	// Thread is the calling thread's private cell for this backend.
	Thread *ThreadState
}

// ThreadState is the per-thread, per-backend storage. It is only ever
// touched by its owning thread, so it needs no locking.
type ThreadState struct {
	// Rank is the registration order of the owning thread, starting at 0.
	Rank uint64

	// RNG is seeded lazily by the backend on first draw.
	RNG rng.State

	// Value holds any other per-thread data of the backend.
	Value any
}
