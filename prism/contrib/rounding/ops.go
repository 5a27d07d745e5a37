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

package rounding

import (
	"math"

	"github.com/ajroetker/go-prism/prism"
	"github.com/ajroetker/go-prism/prism/contrib/eft"
	"github.com/ajroetker/go-prism/prism/rng"
)

// Op identifies an arithmetic operation that has a vector form.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpFMA
	numOps
)

// Ops returns all operations with a vector form.
func Ops() []Op {
	ops := make([]Op, 0, numOps)
	for op := OpAdd; op < numOps; op++ {
		ops = append(ops, op)
	}
	return ops
}

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpFMA:
		return "fma"
	default:
		return "unknown"
	}
}

// Up-or-down.

func AddUD[T prism.Floats](a, b T, st *rng.State) T { return UpDown(a+b, st) }
func SubUD[T prism.Floats](a, b T, st *rng.State) T { return UpDown(a-b, st) }
func MulUD[T prism.Floats](a, b T, st *rng.State) T { return UpDown(T(a*b), st) }
func DivUD[T prism.Floats](a, b T, st *rng.State) T { return UpDown(a/b, st) }

func SqrtUD[T prism.Floats](a T, st *rng.State) T {
	return UpDown(T(math.Sqrt(float64(a))), st)
}

func FMAUD[T prism.Floats](a, b, c T, st *rng.State) T {
	return UpDown(eft.FMA(a, b, c), st)
}

// CastUD narrows a to binary32 and perturbs the result.
func CastUD(a float64, st *rng.State) float32 {
	return UpDown(float32(a), st)
}

// Stochastic rounding.

// AddSR returns a+b stochastically rounded.
func AddSR[T prism.Floats](a, b T, st *rng.State) T {
	s := a + b
	if !isFinite(a) || !isFinite(b) || !isFinite(s) {
		return s
	}
	z := st.Float64()
	_, e := eft.TwoSum(a, b)
	return Round(s, float64(e), z)
}

// SubSR returns a-b stochastically rounded.
func SubSR[T prism.Floats](a, b T, st *rng.State) T {
	return AddSR(a, -b, st)
}

// MulSR returns a*b stochastically rounded. The product error is exact
// unless it falls below the subnormal range.
func MulSR[T prism.Floats](a, b T, st *rng.State) T {
	p := T(a * b)
	if !isFinite(a) || !isFinite(b) || !isFinite(p) {
		return p
	}
	z := st.Float64()
	_, e := eft.TwoProdFMA(a, b)
	return Round(p, float64(e), z)
}

// DivSR returns a/b stochastically rounded. The error of q = fl(a/b) is
// (a - q*b)/b with the numerator computed exactly by one FMA.
func DivSR[T prism.Floats](a, b T, st *rng.State) T {
	q := a / b
	if !isFinite(a) || !isFinite(b) || !isFinite(q) {
		return q
	}
	z := st.Float64()
	r := eft.DivResidual(a, b, q)
	return Round(q, float64(r)/float64(b), z)
}

// SqrtSR returns sqrt(a) stochastically rounded. The error of s is
// (a - s*s)/(2s) to first order.
func SqrtSR[T prism.Floats](a T, st *rng.State) T {
	s := T(math.Sqrt(float64(a)))
	if !isFinite(a) || !isFinite(s) {
		return s
	}
	z := st.Float64()
	if s == 0 {
		return s
	}
	r := eft.SqrtResidual(a, s)
	return Round(s, float64(r)/(2*float64(s)), z)
}

// FMASR returns a*b + c stochastically rounded using the two-term error of
// ErrFMA.
func FMASR[T prism.Floats](a, b, c T, st *rng.State) T {
	r1 := eft.FMA(a, b, c)
	if !isFinite(a) || !isFinite(b) || !isFinite(c) || !isFinite(r1) {
		return r1
	}
	z := st.Float64()
	_, r2, r3 := eft.ErrFMA(a, b, c)
	return Round(r1, float64(r2)+float64(r3), z)
}

// CastSR narrows a to binary32 with stochastic rounding. The remainder
// a - float64(fl32(a)) is exact in binary64.
func CastSR(a float64, st *rng.State) float32 {
	x := float32(a)
	if !isFinite(a) || !isFinite(x) {
		return x
	}
	z := st.Float64()
	return Round(x, a-float64(x), z)
}

// Lane returns the per-element function for op under mode. The third
// operand is used by OpFMA only.
func Lane[T prism.Floats](mode Mode, op Op) func(a, b, c T, st *rng.State) T {
	if mode == ModeUD {
		switch op {
		case OpAdd:
			return func(a, b, _ T, st *rng.State) T { return AddUD(a, b, st) }
		case OpSub:
			return func(a, b, _ T, st *rng.State) T { return SubUD(a, b, st) }
		case OpMul:
			return func(a, b, _ T, st *rng.State) T { return MulUD(a, b, st) }
		case OpDiv:
			return func(a, b, _ T, st *rng.State) T { return DivUD(a, b, st) }
		case OpFMA:
			return FMAUD[T]
		}
		return nil
	}
	switch op {
	case OpAdd:
		return func(a, b, _ T, st *rng.State) T { return AddSR(a, b, st) }
	case OpSub:
		return func(a, b, _ T, st *rng.State) T { return SubSR(a, b, st) }
	case OpMul:
		return func(a, b, _ T, st *rng.State) T { return MulSR(a, b, st) }
	case OpDiv:
		return func(a, b, _ T, st *rng.State) T { return DivSR(a, b, st) }
	case OpFMA:
		return FMASR[T]
	}
	return nil
}
