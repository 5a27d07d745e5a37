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

// Package eft provides error-free transforms: operations returning the
// rounded result of an arithmetic operation together with its exact rounding
// error, so that head + error equals the mathematical result.
//
// All functions assume round-to-nearest and finite inputs whose results do
// not overflow or underflow. Products that feed sums are kept behind explicit
// conversions or math.FMA so the compiler cannot fuse them.
package eft

import (
	"math"

	"github.com/ajroetker/go-prism/prism"
)

// TwoSum returns s = fl(a+b) and e with s + e = a + b exactly (Knuth).
// No ordering of |a| and |b| is required.
func TwoSum[T prism.Floats](a, b T) (s, e T) {
	s = a + b
	bb := s - a
	e = (a - (s - bb)) + (b - bb)
	return s, e
}

// FastTwoSum is TwoSum for |a| >= |b| (Dekker), three operations instead of six.
func FastTwoSum[T prism.Floats](a, b T) (s, e T) {
	s = a + b
	e = b - (s - a)
	return s, e
}

// TwoProdFMA returns p = fl(a*b) and e with p + e = a*b exactly, using one
// fused multiply-add.
func TwoProdFMA[T prism.Floats](a, b T) (p, e T) {
	p = T(a * b)
	e = FMA(a, b, -p)
	return p, e
}

// FMA returns a*b + c rounded once.
//
// The binary32 path is exact too: the product of two binary32 values fits a
// binary64, TwoSum gives the sum as an exact pair, and rounding the head to
// odd before the final conversion removes the double-rounding error.
func FMA[T prism.Floats](a, b, c T) T {
	switch x := any(a).(type) {
	case float32:
		return T(fma32(x, any(b).(float32), any(c).(float32)))
	case float64:
		return T(math.FMA(x, any(b).(float64), any(c).(float64)))
	}
	if prism.PrecisionOf[T]() == prism.Binary32 {
		return T(fma32(float32(a), float32(b), float32(c)))
	}
	return T(math.FMA(float64(a), float64(b), float64(c)))
}

func fma32(a, b, c float32) float32 {
	p := float64(a) * float64(b)
	if math.IsNaN(p) || math.IsInf(p, 0) || math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
		return float32(p + float64(c))
	}
	s, e := TwoSum(p, float64(c))
	if e != 0 {
		// Round s to odd: if its last bit is even, step one ulp toward the
		// exact value. A binary64 rounded to odd converts to binary32 as if
		// the exact value had been rounded directly.
		bits := math.Float64bits(s)
		if bits&1 == 0 {
			if (e > 0) == (s > 0) {
				bits++
			} else {
				bits--
			}
			s = math.Float64frombits(bits)
		}
	}
	return float32(s)
}

// ErrFMA returns r1 = fl(a*b + c) and r2, r3 with r1 + r2 + r3 = a*b + c
// exactly (Boldo and Muller). |r2 + r3| is at most half an ulp of r1.
func ErrFMA[T prism.Floats](a, b, c T) (r1, r2, r3 T) {
	r1 = FMA(a, b, c)
	u1, u2 := TwoProdFMA(a, b)
	alpha1, alpha2 := TwoSum(c, u2)
	beta1, beta2 := TwoSum(u1, alpha1)
	gamma := (beta1 - r1) + beta2
	r2, r3 = FastTwoSum(gamma, alpha2)
	return r1, r2, r3
}

// DivResidual returns a - q*b exactly for q = fl(a/b). The quotient's error is
// DivResidual(a, b, q) / b.
func DivResidual[T prism.Floats](a, b, q T) T {
	return FMA(-q, b, a)
}

// SqrtResidual returns a - s*s exactly for s = fl(sqrt(a)). The root's error
// is SqrtResidual(a, s) / (2s).
func SqrtResidual[T prism.Floats](a, s T) T {
	return FMA(-s, s, a)
}
