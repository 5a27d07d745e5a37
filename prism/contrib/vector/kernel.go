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

package vector

import (
	"fmt"

	"github.com/ajroetker/go-prism/prism"
	"github.com/ajroetker/go-prism/prism/contrib/rounding"
	"github.com/ajroetker/go-prism/prism/rng"
)

// terms holds the IEEE result of every lane of one kernel call and, under
// stochastic rounding, its exact error: e1 alone for add, sub and mul, the
// residual a - q*b for div, and e1 + e2 for fma. ok is false for lanes with
// a non-finite operand or result.
type terms[T prism.Floats] struct {
	head, e1, e2 [MaxVecLanes]T
	ok           [MaxVecLanes]bool
}

// fillFn computes the terms of lanes [off, off+n) of one kernel call. sr is
// false when only the heads are needed.
type fillFn[T prism.Floats] func(op rounding.Op, sr bool, t *terms[T], a, b, c []T, off, n int)

// fillBase computes terms with Vec operations, in the same operation order
// as the eft transforms the scalar path uses.
func fillBase[T prism.Floats](op rounding.Op, sr bool, t *terms[T], a, b, c []T, off, n int) {
	va, vb := Load(a[off:], n), Load(b[off:], n)
	ok := IsFinite(va).And(IsFinite(vb))
	var head, e1, e2 Vec[T]
	switch op {
	case rounding.OpAdd:
		head = Add(va, vb)
		if sr {
			bb := Sub(head, va)
			e1 = Add(Sub(va, Sub(head, bb)), Sub(vb, bb))
		}
	case rounding.OpSub:
		// TwoSum(a, -b), with -b - bb written as -(b + bb).
		head = Sub(va, vb)
		if sr {
			bb := Sub(head, va)
			e1 = Sub(Sub(va, Sub(head, bb)), Add(vb, bb))
		}
	case rounding.OpMul:
		head = Mul(va, vb)
		if sr {
			e1 = FMA(va, vb, Neg(head))
		}
	case rounding.OpDiv:
		head = Div(va, vb)
		if sr {
			e1 = FMA(Neg(head), vb, va)
		}
	case rounding.OpFMA:
		vc := Load(c[off:], n)
		ok = ok.And(IsFinite(vc))
		head = FMA(va, vb, vc)
		if sr {
			e1, e2 = errFMA(va, vb, vc, head)
		}
	}
	ok = ok.And(IsFinite(head))

	Store(head, t.head[off:])
	Store(e1, t.e1[off:])
	Store(e2, t.e2[off:])
	ok.Store(t.ok[off:])
}

// errFMA returns r2, r3 with r1 + r2 + r3 = a*b + c exactly.
func errFMA[T prism.Floats](a, b, c, r1 Vec[T]) (r2, r3 Vec[T]) {
	u1 := Mul(a, b)
	u2 := FMA(a, b, Neg(u1))
	alpha1 := Add(c, u2)
	bb := Sub(alpha1, c)
	alpha2 := Add(Sub(c, Sub(alpha1, bb)), Sub(u2, bb))
	beta1 := Add(u1, alpha1)
	bb = Sub(beta1, u1)
	beta2 := Add(Sub(u1, Sub(beta1, bb)), Sub(alpha1, bb))
	gamma := Add(Sub(beta1, r1), beta2)
	r2 = Add(gamma, alpha2)
	r3 = Sub(alpha2, Sub(r2, gamma))
	return r2, r3
}

// finish turns the terms into results, lane by lane in order, drawing from
// st exactly as the per-lane functions do. Lanes with a non-finite operand
// or result go through lane itself.
func (t *terms[T]) finish(mode rounding.Mode, op rounding.Op, lane func(a, b, c T, st *rng.State) T, st *rng.State, dst, a, b, c []T, width int) {
	var zero T
	for j := range width {
		if !t.ok[j] {
			cj := zero
			if c != nil {
				cj = c[j]
			}
			dst[j] = lane(a[j], b[j], cj, st)
			continue
		}
		if mode == rounding.ModeUD {
			dst[j] = rounding.UpDown(t.head[j], st)
			continue
		}
		z := st.Float64()
		var err float64
		switch op {
		case rounding.OpDiv:
			err = float64(t.e1[j]) / float64(b[j])
		case rounding.OpFMA:
			err = float64(t.e1[j]) + float64(t.e2[j])
		default:
			err = float64(t.e1[j])
		}
		dst[j] = rounding.Round(t.head[j], err, z)
	}
}

func checkLanes[T prism.Floats](mode rounding.Mode, op rounding.Op, width int, dst, a, b, c []T) {
	if len(dst) < width || len(a) < width || len(b) < width || (op == rounding.OpFMA && len(c) < width) {
		panic(fmt.Sprintf("vector: %v_%v_%dx called with %d lanes", mode, op, width, min(len(dst), len(a), len(b))))
	}
}

// scalarKernel applies the per-lane function to one lane at a time.
func scalarKernel[T prism.Floats](mode rounding.Mode, op rounding.Op, width int) Kernel[T] {
	lane := rounding.Lane[T](mode, op)
	fma := op == rounding.OpFMA
	return func(st *rng.State, dst, a, b, c []T) {
		checkLanes(mode, op, width, dst, a, b, c)
		var zero T
		for j := range width {
			cj := zero
			if fma {
				cj = c[j]
			}
			dst[j] = lane(a[j], b[j], cj, st)
		}
	}
}

// blockKernel computes the terms in blocks of tag D, full blocks with full
// and the remainder with fillBase, then finishes them in lane order.
func blockKernel[T prism.Floats, D prism.Tag](mode rounding.Mode, op rounding.Op, width int, full fillFn[T]) Kernel[T] {
	var d D
	lane := rounding.Lane[T](mode, op)
	sr := mode == rounding.ModeSR
	fma := op == rounding.OpFMA
	if full == nil {
		full = fillBase[T]
	}
	lanes := BlockLanes[T](d)
	return func(st *rng.State, dst, a, b, c []T) {
		checkLanes(mode, op, width, dst, a, b, c)
		if !fma {
			c = nil
		}
		var t terms[T]
		ProcessWithTail[T](d, width,
			func(off int) { full(op, sr, &t, a, b, c, off, lanes) },
			func(off, n int) { fillBase(op, sr, &t, a, b, c, off, n) })
		t.finish(mode, op, lane, st, dst, a, b, c, width)
	}
}

func registerKernels(level prism.DispatchLevel, k32 func(rounding.Mode, rounding.Op, int) Kernel[float32], k64 func(rounding.Mode, rounding.Op, int) Kernel[float64]) {
	for _, mode := range rounding.Modes() {
		for _, op := range rounding.Ops() {
			for _, w := range Widths {
				key := Key{Mode: mode, Op: op, Width: w, Level: level}
				Float32.Register(key, k32(mode, op, w))
				Float64.Register(key, k64(mode, op, w))
			}
		}
	}
}

// registerScalar registers the one-lane-at-a-time kernels.
func registerScalar() {
	registerKernels(prism.DispatchScalar, scalarKernel[float32], scalarKernel[float64])
}

// registerLevel registers the block kernels of level, built with tag D.
// full32 and full64 compute full blocks; nil selects fillBase.
func registerLevel[D prism.Tag](level prism.DispatchLevel, full32 fillFn[float32], full64 fillFn[float64]) {
	registerKernels(level,
		func(mode rounding.Mode, op rounding.Op, w int) Kernel[float32] {
			return blockKernel[float32, D](mode, op, w, full32)
		},
		func(mode rounding.Mode, op rounding.Op, w int) Kernel[float64] {
			return blockKernel[float64, D](mode, op, w, full64)
		})
}
