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

package frontend

import (
	"math"
	"runtime"

	"github.com/ajroetker/go-prism/prism"
	"github.com/ajroetker/go-prism/prism/contrib/eft"
	"github.com/ajroetker/go-prism/prism/interflop"
)

// Thread is one goroutine's handle into a Runtime. It holds the goroutine's
// private cell for every backend and must not be shared between goroutines.
type Thread struct {
	rt    *Runtime
	ctxs  []interflop.Context
	cells []interflop.ThreadState
	stack interflop.FunctionStack
}

// Runtime returns the runtime the thread belongs to.
func (t *Thread) Runtime() *Runtime {
	return t.rt
}

// Rank returns the thread's registration order.
func (t *Thread) Rank() uint64 {
	if len(t.cells) == 0 {
		return 0
	}
	return t.cells[0].Rank
}

// callSiteSkip skips runtime.Callers, callSite, bypassed, the dispatch
// helper and the exported entry point, leaving the return address in the
// instrumented code.
const callSiteSkip = 5

func callSite() uintptr {
	var pcs [1]uintptr
	if runtime.Callers(callSiteSkip, pcs[:]) == 0 {
		return 0
	}
	return pcs[0]
}

// bypassed evaluates the delta-debug gate. Every entry point reaches it
// through exactly one helper frame.
func (t *Thread) bypassed() bool {
	if !t.rt.opts.Has(DDebug) {
		return false
	}
	return t.rt.filter.Bypass(callSite())
}

// Slot signatures, named for brevity.
type (
	binOp32 = func(a, b float32, res *float32, ctx *interflop.Context)
	binOp64 = func(a, b float64, res *float64, ctx *interflop.Context)
	unOp32  = func(a float32, res *float32, ctx *interflop.Context)
	unOp64  = func(a float64, res *float64, ctx *interflop.Context)
	fmaOp32 = func(a, b, c float32, res *float32, ctx *interflop.Context)
	fmaOp64 = func(a, b, c float64, res *float64, ctx *interflop.Context)
	cmpOp32 = func(p interflop.Predicate, a, b float32, res *int, ctx *interflop.Context)
	cmpOp64 = func(p interflop.Predicate, a, b float64, res *int, ctx *interflop.Context)
)

type binarySlot[T prism.Floats] func(o *interflop.Ops) func(a, b T, res *T, ctx *interflop.Context)

// binary dispatches a two-operand operation. raw is the IEEE result
// returned when the call site is bypassed.
func binary[T prism.Floats](t *Thread, a, b, raw T, slot binarySlot[T]) T {
	if t.bypassed() {
		return raw
	}
	res := T(math.NaN())
	for i := range t.rt.backends {
		if fn := slot(t.rt.backends[i].Ops); fn != nil {
			fn(a, b, &res, &t.ctxs[i])
		}
	}
	return res
}

func (t *Thread) AddFloat(a, b float32) float32 {
	return binary(t, a, b, a+b, func(o *interflop.Ops) binOp32 { return o.AddFloat })
}

func (t *Thread) SubFloat(a, b float32) float32 {
	return binary(t, a, b, a-b, func(o *interflop.Ops) binOp32 { return o.SubFloat })
}

func (t *Thread) MulFloat(a, b float32) float32 {
	return binary(t, a, b, a*b, func(o *interflop.Ops) binOp32 { return o.MulFloat })
}

func (t *Thread) DivFloat(a, b float32) float32 {
	return binary(t, a, b, a/b, func(o *interflop.Ops) binOp32 { return o.DivFloat })
}

func (t *Thread) AddDouble(a, b float64) float64 {
	return binary(t, a, b, a+b, func(o *interflop.Ops) binOp64 { return o.AddDouble })
}

func (t *Thread) SubDouble(a, b float64) float64 {
	return binary(t, a, b, a-b, func(o *interflop.Ops) binOp64 { return o.SubDouble })
}

func (t *Thread) MulDouble(a, b float64) float64 {
	return binary(t, a, b, a*b, func(o *interflop.Ops) binOp64 { return o.MulDouble })
}

func (t *Thread) DivDouble(a, b float64) float64 {
	return binary(t, a, b, a/b, func(o *interflop.Ops) binOp64 { return o.DivDouble })
}

type unarySlot[T prism.Floats] func(o *interflop.Ops) func(a T, res *T, ctx *interflop.Context)

func unary[T prism.Floats](t *Thread, a, raw T, slot unarySlot[T]) T {
	if t.bypassed() {
		return raw
	}
	res := T(math.NaN())
	for i := range t.rt.backends {
		if fn := slot(t.rt.backends[i].Ops); fn != nil {
			fn(a, &res, &t.ctxs[i])
		}
	}
	return res
}

func (t *Thread) SqrtFloat(a float32) float32 {
	return unary(t, a, float32(math.Sqrt(float64(a))), func(o *interflop.Ops) unOp32 { return o.SqrtFloat })
}

func (t *Thread) SqrtDouble(a float64) float64 {
	return unary(t, a, math.Sqrt(a), func(o *interflop.Ops) unOp64 { return o.SqrtDouble })
}

type ternarySlot[T prism.Floats] func(o *interflop.Ops) func(a, b, c T, res *T, ctx *interflop.Context)

func ternary[T prism.Floats](t *Thread, a, b, c T, slot ternarySlot[T]) T {
	raw := eft.FMA(a, b, c)
	if !t.rt.opts.Has(InstFMA) || t.bypassed() {
		return raw
	}
	res := T(math.NaN())
	for i := range t.rt.backends {
		if fn := slot(t.rt.backends[i].Ops); fn != nil {
			fn(a, b, c, &res, &t.ctxs[i])
		}
	}
	return res
}

// FMAFloat returns a*b + c. Without InstFMA it is computed natively.
func (t *Thread) FMAFloat(a, b, c float32) float32 {
	return ternary(t, a, b, c, func(o *interflop.Ops) fmaOp32 { return o.FMAFloat })
}

// FMADouble returns a*b + c. Without InstFMA it is computed natively.
func (t *Thread) FMADouble(a, b, c float64) float64 {
	return ternary(t, a, b, c, func(o *interflop.Ops) fmaOp64 { return o.FMADouble })
}

type cmpSlot[T prism.Floats] func(o *interflop.Ops) func(p interflop.Predicate, a, b T, res *int, ctx *interflop.Context)

func compare[T prism.Floats](t *Thread, p interflop.Predicate, a, b T, slot cmpSlot[T]) int {
	if !t.rt.opts.Has(InstCmp) || t.bypassed() {
		return interflop.Bool(interflop.Eval(p, a, b))
	}
	res := 0
	for i := range t.rt.backends {
		if fn := slot(t.rt.backends[i].Ops); fn != nil {
			fn(p, a, b, &res, &t.ctxs[i])
		}
	}
	return res
}

// CmpFloat evaluates p(a, b) and returns 1 or 0. Without InstCmp it is
// evaluated natively.
func (t *Thread) CmpFloat(p interflop.Predicate, a, b float32) int {
	return compare(t, p, a, b, func(o *interflop.Ops) cmpOp32 { return o.CmpFloat })
}

// CmpDouble evaluates p(a, b) and returns 1 or 0. Without InstCmp it is
// evaluated natively.
func (t *Thread) CmpDouble(p interflop.Predicate, a, b float64) int {
	return compare(t, p, a, b, func(o *interflop.Ops) cmpOp64 { return o.CmpDouble })
}

// CastDoubleToFloat narrows a to binary32. Without InstCast it is a plain
// conversion.
func (t *Thread) CastDoubleToFloat(a float64) float32 {
	return t.cast(a)
}

func (t *Thread) cast(a float64) float32 {
	if !t.rt.opts.Has(InstCast) || t.bypassed() {
		return float32(a)
	}
	res := float32(math.NaN())
	for i := range t.rt.backends {
		if fn := t.rt.backends[i].Ops.CastDoubleToFloat; fn != nil {
			fn(a, &res, &t.ctxs[i])
		}
	}
	return res
}

// Enter records entry into an instrumented function and calls the
// backends' EnterFunction hooks. It is a no-op without InstFunc.
func (t *Thread) Enter(name string) {
	if !t.rt.opts.Has(InstFunc) {
		return
	}
	t.stack.Push(name)
	for i := range t.rt.backends {
		if fn := t.rt.backends[i].Ops.EnterFunction; fn != nil {
			fn(&t.stack, &t.ctxs[i])
		}
	}
}

// Exit calls the backends' ExitFunction hooks and leaves the innermost
// instrumented function.
func (t *Thread) Exit() {
	if !t.rt.opts.Has(InstFunc) || t.stack.Depth() == 0 {
		return
	}
	for i := range t.rt.backends {
		if fn := t.rt.backends[i].Ops.ExitFunction; fn != nil {
			fn(&t.stack, &t.ctxs[i])
		}
	}
	t.stack.Pop()
}

// Stack returns the thread's instrumented call stack.
func (t *Thread) Stack() *interflop.FunctionStack {
	return &t.stack
}
