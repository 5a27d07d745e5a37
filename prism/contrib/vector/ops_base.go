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
	"math"

	"github.com/ajroetker/go-prism/prism"
	"github.com/ajroetker/go-prism/prism/contrib/eft"
)

// This file provides pure Go implementations of the block operations the
// kernels are written in. On amd64 builds with GOEXPERIMENT=simd the AVX2
// and AVX-512 tiers compute full blocks with archsimd instead (ops_avx2.go,
// ops_avx512.go); these remain the fallback and handle partial blocks.

// MaxVecLanes is the largest block a Vec holds: 16 binary32 lanes of a
// 512-bit register.
const MaxVecLanes = 16

// Vec is one block of lanes. Only the first NumLanes entries are used.
type Vec[T prism.Floats] struct {
	data [MaxVecLanes]T
	n    int
}

// NumLanes returns the number of lanes in v.
func (v Vec[T]) NumLanes() int {
	return v.n
}

// Lane returns lane i of v.
func (v Vec[T]) Lane(i int) T {
	return v.data[i]
}

// Mask holds one boolean per lane of a Vec.
type Mask[T prism.Floats] struct {
	bits [MaxVecLanes]bool
	n    int
}

// Load creates a vector from the first n elements of src.
func Load[T prism.Floats](src []T, n int) Vec[T] {
	n = min(n, len(src), MaxVecLanes)
	var v Vec[T]
	copy(v.data[:n], src[:n])
	v.n = n
	return v
}

// Store writes the lanes of v to dst.
func Store[T prism.Floats](v Vec[T], dst []T) {
	n := min(len(dst), v.n)
	copy(dst[:n], v.data[:n])
}

// Add performs element-wise addition.
func Add[T prism.Floats](a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n)}
	for i := range r.n {
		r.data[i] = a.data[i] + b.data[i]
	}
	return r
}

// Sub performs element-wise subtraction.
func Sub[T prism.Floats](a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n)}
	for i := range r.n {
		r.data[i] = a.data[i] - b.data[i]
	}
	return r
}

// Mul performs element-wise multiplication. Each product is rounded on its
// own and never fused with a later addition.
func Mul[T prism.Floats](a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n)}
	for i := range r.n {
		r.data[i] = T(a.data[i] * b.data[i])
	}
	return r
}

// Div performs element-wise division.
func Div[T prism.Floats](a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n)}
	for i := range r.n {
		r.data[i] = a.data[i] / b.data[i]
	}
	return r
}

// Neg negates every lane, zeros included.
func Neg[T prism.Floats](v Vec[T]) Vec[T] {
	for i := range v.n {
		v.data[i] = -v.data[i]
	}
	return v
}

// FMA computes a*b + c with a single rounding per lane, binary32 included.
func FMA[T prism.Floats](a, b, c Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n, c.n)}
	for i := range r.n {
		r.data[i] = eft.FMA(a.data[i], b.data[i], c.data[i])
	}
	return r
}

// IsFinite returns a mask of the lanes that are neither NaN nor infinite.
func IsFinite[T prism.Floats](v Vec[T]) Mask[T] {
	m := Mask[T]{n: v.n}
	for i := range v.n {
		f := float64(v.data[i])
		m.bits[i] = !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return m
}

// And returns the lanes set in both m and o.
func (m Mask[T]) And(o Mask[T]) Mask[T] {
	r := Mask[T]{n: min(m.n, o.n)}
	for i := range r.n {
		r.bits[i] = m.bits[i] && o.bits[i]
	}
	return r
}

// Store writes the lanes of m to dst.
func (m Mask[T]) Store(dst []bool) {
	n := min(len(dst), m.n)
	copy(dst[:n], m.bits[:n])
}
