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

//go:build amd64 && goexperiment.simd

package vector

import (
	"simd/archsimd"

	"github.com/ajroetker/go-prism/prism/contrib/rounding"
)

// This file computes full AVX2 blocks directly on archsimd vectors. The
// operation order matches fillBase, so heads and error terms are the same
// bits. Negation is a multiply by -1, which keeps the sign of zeros.

var (
	negOne_AVX2_F32x8 = archsimd.BroadcastFloat32x8(-1)
	negOne_AVX2_F64x4 = archsimd.BroadcastFloat64x4(-1)
)

// fill_AVX2_F32x8 computes the terms of one full block of 8 float32 lanes.
func fill_AVX2_F32x8(op rounding.Op, sr bool, t *terms[float32], a, b, c []float32, off, _ int) {
	va := archsimd.LoadFloat32x8Slice(a[off:])
	vb := archsimd.LoadFloat32x8Slice(b[off:])
	chk := va.Sub(va).Add(vb.Sub(vb))
	var head, e1, e2 archsimd.Float32x8
	switch op {
	case rounding.OpAdd:
		head = va.Add(vb)
		if sr {
			bb := head.Sub(va)
			e1 = va.Sub(head.Sub(bb)).Add(vb.Sub(bb))
		}
	case rounding.OpSub:
		head = va.Sub(vb)
		if sr {
			bb := head.Sub(va)
			e1 = va.Sub(head.Sub(bb)).Sub(vb.Add(bb))
		}
	case rounding.OpMul:
		head = va.Mul(vb)
		if sr {
			e1 = va.MulAdd(vb, head.Mul(negOne_AVX2_F32x8))
		}
	case rounding.OpDiv:
		head = va.Div(vb)
		if sr {
			e1 = head.Mul(negOne_AVX2_F32x8).MulAdd(vb, va)
		}
	case rounding.OpFMA:
		vc := archsimd.LoadFloat32x8Slice(c[off:])
		chk = chk.Add(vc.Sub(vc))
		head = va.MulAdd(vb, vc)
		if sr {
			e1, e2 = errFMA_AVX2_F32x8(va, vb, vc, head)
		}
	}
	// x - x is zero for finite x and NaN otherwise.
	chk = chk.Add(head.Sub(head))

	head.StoreSlice(t.head[off:])
	e1.StoreSlice(t.e1[off:])
	e2.StoreSlice(t.e2[off:])
	var finite [8]float32
	chk.StoreSlice(finite[:])
	for i, x := range finite {
		t.ok[off+i] = x == 0
	}
}

func errFMA_AVX2_F32x8(a, b, c, r1 archsimd.Float32x8) (r2, r3 archsimd.Float32x8) {
	u1 := a.Mul(b)
	u2 := a.MulAdd(b, u1.Mul(negOne_AVX2_F32x8))
	alpha1 := c.Add(u2)
	bb := alpha1.Sub(c)
	alpha2 := c.Sub(alpha1.Sub(bb)).Add(u2.Sub(bb))
	beta1 := u1.Add(alpha1)
	bb = beta1.Sub(u1)
	beta2 := u1.Sub(beta1.Sub(bb)).Add(alpha1.Sub(bb))
	gamma := beta1.Sub(r1).Add(beta2)
	r2 = gamma.Add(alpha2)
	r3 = alpha2.Sub(r2.Sub(gamma))
	return r2, r3
}

// fill_AVX2_F64x4 computes the terms of one full block of 4 float64 lanes.
func fill_AVX2_F64x4(op rounding.Op, sr bool, t *terms[float64], a, b, c []float64, off, _ int) {
	va := archsimd.LoadFloat64x4Slice(a[off:])
	vb := archsimd.LoadFloat64x4Slice(b[off:])
	chk := va.Sub(va).Add(vb.Sub(vb))
	var head, e1, e2 archsimd.Float64x4
	switch op {
	case rounding.OpAdd:
		head = va.Add(vb)
		if sr {
			bb := head.Sub(va)
			e1 = va.Sub(head.Sub(bb)).Add(vb.Sub(bb))
		}
	case rounding.OpSub:
		head = va.Sub(vb)
		if sr {
			bb := head.Sub(va)
			e1 = va.Sub(head.Sub(bb)).Sub(vb.Add(bb))
		}
	case rounding.OpMul:
		head = va.Mul(vb)
		if sr {
			e1 = va.MulAdd(vb, head.Mul(negOne_AVX2_F64x4))
		}
	case rounding.OpDiv:
		head = va.Div(vb)
		if sr {
			e1 = head.Mul(negOne_AVX2_F64x4).MulAdd(vb, va)
		}
	case rounding.OpFMA:
		vc := archsimd.LoadFloat64x4Slice(c[off:])
		chk = chk.Add(vc.Sub(vc))
		head = va.MulAdd(vb, vc)
		if sr {
			e1, e2 = errFMA_AVX2_F64x4(va, vb, vc, head)
		}
	}
	// x - x is zero for finite x and NaN otherwise.
	chk = chk.Add(head.Sub(head))

	head.StoreSlice(t.head[off:])
	e1.StoreSlice(t.e1[off:])
	e2.StoreSlice(t.e2[off:])
	var finite [4]float64
	chk.StoreSlice(finite[:])
	for i, x := range finite {
		t.ok[off+i] = x == 0
	}
}

func errFMA_AVX2_F64x4(a, b, c, r1 archsimd.Float64x4) (r2, r3 archsimd.Float64x4) {
	u1 := a.Mul(b)
	u2 := a.MulAdd(b, u1.Mul(negOne_AVX2_F64x4))
	alpha1 := c.Add(u2)
	bb := alpha1.Sub(c)
	alpha2 := c.Sub(alpha1.Sub(bb)).Add(u2.Sub(bb))
	beta1 := u1.Add(alpha1)
	bb = beta1.Sub(u1)
	beta2 := u1.Sub(beta1.Sub(bb)).Add(alpha1.Sub(bb))
	gamma := beta1.Sub(r1).Add(beta2)
	r2 = gamma.Add(alpha2)
	r3 = alpha2.Sub(r2.Sub(gamma))
	return r2, r3
}
