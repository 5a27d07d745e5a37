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

	"github.com/ajroetker/go-prism/prism"
	"github.com/ajroetker/go-prism/prism/contrib/eft"
	"github.com/ajroetker/go-prism/prism/interflop"
)

// Vector entry points write min(len(dst), len(a), len(b)) lanes of dst and
// leave the rest untouched. dst must not overlap the operands. A backend's
// vector slot computes all lanes at once; a backend without one is called
// per lane through its scalar slot.

type (
	vecOp32    = func(a, b, res []float32, ctx *interflop.Context)
	vecOp64    = func(a, b, res []float64, ctx *interflop.Context)
	vecFMAOp32 = func(a, b, c, res []float32, ctx *interflop.Context)
	vecFMAOp64 = func(a, b, c, res []float64, ctx *interflop.Context)
)

type vecSlot[T prism.Floats] func(o *interflop.Ops) (vec func(a, b, res []T, ctx *interflop.Context), lane func(a, b T, res *T, ctx *interflop.Context))

func fill[T prism.Floats](dst []T, v T) {
	for i := range dst {
		dst[i] = v
	}
}

func vectorBinary[T prism.Floats](t *Thread, dst, a, b []T, raw func(x, y T) T, slot vecSlot[T]) {
	n := min(len(dst), len(a), len(b))
	dst, a, b = dst[:n], a[:n], b[:n]
	if t.bypassed() {
		for i := range n {
			dst[i] = raw(a[i], b[i])
		}
		return
	}
	fill(dst, T(math.NaN()))
	for i := range t.rt.backends {
		vec, lane := slot(t.rt.backends[i].Ops)
		switch {
		case vec != nil:
			vec(a, b, dst, &t.ctxs[i])
		case lane != nil:
			for j := range n {
				lane(a[j], b[j], &dst[j], &t.ctxs[i])
			}
		}
	}
}

func (t *Thread) AddFloatVec(dst, a, b []float32) {
	vectorBinary(t, dst, a, b, func(x, y float32) float32 { return x + y },
		func(o *interflop.Ops) (vecOp32, binOp32) { return o.AddFloatVec, o.AddFloat })
}

func (t *Thread) SubFloatVec(dst, a, b []float32) {
	vectorBinary(t, dst, a, b, func(x, y float32) float32 { return x - y },
		func(o *interflop.Ops) (vecOp32, binOp32) { return o.SubFloatVec, o.SubFloat })
}

func (t *Thread) MulFloatVec(dst, a, b []float32) {
	vectorBinary(t, dst, a, b, func(x, y float32) float32 { return x * y },
		func(o *interflop.Ops) (vecOp32, binOp32) { return o.MulFloatVec, o.MulFloat })
}

func (t *Thread) DivFloatVec(dst, a, b []float32) {
	vectorBinary(t, dst, a, b, func(x, y float32) float32 { return x / y },
		func(o *interflop.Ops) (vecOp32, binOp32) { return o.DivFloatVec, o.DivFloat })
}

func (t *Thread) AddDoubleVec(dst, a, b []float64) {
	vectorBinary(t, dst, a, b, func(x, y float64) float64 { return x + y },
		func(o *interflop.Ops) (vecOp64, binOp64) { return o.AddDoubleVec, o.AddDouble })
}

func (t *Thread) SubDoubleVec(dst, a, b []float64) {
	vectorBinary(t, dst, a, b, func(x, y float64) float64 { return x - y },
		func(o *interflop.Ops) (vecOp64, binOp64) { return o.SubDoubleVec, o.SubDouble })
}

func (t *Thread) MulDoubleVec(dst, a, b []float64) {
	vectorBinary(t, dst, a, b, func(x, y float64) float64 { return x * y },
		func(o *interflop.Ops) (vecOp64, binOp64) { return o.MulDoubleVec, o.MulDouble })
}

func (t *Thread) DivDoubleVec(dst, a, b []float64) {
	vectorBinary(t, dst, a, b, func(x, y float64) float64 { return x / y },
		func(o *interflop.Ops) (vecOp64, binOp64) { return o.DivDoubleVec, o.DivDouble })
}

type vecFMASlot[T prism.Floats] func(o *interflop.Ops) (vec func(a, b, c, res []T, ctx *interflop.Context), lane func(a, b, c T, res *T, ctx *interflop.Context))

func vectorFMA[T prism.Floats](t *Thread, dst, a, b, c []T, slot vecFMASlot[T]) {
	n := min(len(dst), len(a), len(b), len(c))
	dst, a, b, c = dst[:n], a[:n], b[:n], c[:n]
	if !t.rt.opts.Has(InstFMA) || t.bypassed() {
		for i := range n {
			dst[i] = eft.FMA(a[i], b[i], c[i])
		}
		return
	}
	fill(dst, T(math.NaN()))
	for i := range t.rt.backends {
		vec, lane := slot(t.rt.backends[i].Ops)
		switch {
		case vec != nil:
			vec(a, b, c, dst, &t.ctxs[i])
		case lane != nil:
			for j := range n {
				lane(a[j], b[j], c[j], &dst[j], &t.ctxs[i])
			}
		}
	}
}

// FMAFloatVec computes dst = a*b + c lane by lane.
func (t *Thread) FMAFloatVec(dst, a, b, c []float32) {
	vectorFMA(t, dst, a, b, c, func(o *interflop.Ops) (vecFMAOp32, fmaOp32) { return o.FMAFloatVec, o.FMAFloat })
}

// FMADoubleVec computes dst = a*b + c lane by lane.
func (t *Thread) FMADoubleVec(dst, a, b, c []float64) {
	vectorFMA(t, dst, a, b, c, func(o *interflop.Ops) (vecFMAOp64, fmaOp64) { return o.FMADoubleVec, o.FMADouble })
}
