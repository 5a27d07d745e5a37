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

// Package prism is the core of a Monte Carlo Arithmetic runtime: instrumented
// programs route their floating-point operations through it so that every
// result can be perturbed with random noise, and the spread of many perturbed
// runs measures how numerically sensitive the program is.
//
// This package holds the pieces shared by everything else: the scalar type
// constraints, the precision enum and the instruction-set tier detection used
// by the vectorized dispatch layer.
//
// Basic usage:
//
//	import "github.com/ajroetker/go-prism/prism/frontend"
//
//	rt := frontend.Default()
//	t := rt.NewThread()
//
//	sum := 0.0
//	for range 1000 {
//		sum = t.AddDouble(sum, 0.1)
//	}
package prism

import (
	"fmt"
	"unsafe"
)

// Floats is a constraint for the IEEE-754 binary formats the runtime perturbs.
type Floats interface {
	~float32 | ~float64
}

// Precision identifies an IEEE-754 binary interchange format.
type Precision int

const (
	// Binary32 is the single precision format (float32).
	Binary32 Precision = iota

	// Binary64 is the double precision format (float64).
	Binary64
)

// String returns the IEEE name of the precision.
func (p Precision) String() string {
	switch p {
	case Binary32:
		return "binary32"
	case Binary64:
		return "binary64"
	default:
		return "unknown"
	}
}

// ParsePrecision accepts "binary32"/"float" and "binary64"/"double".
func ParsePrecision(s string) (Precision, error) {
	switch s {
	case "binary32", "float", "float32":
		return Binary32, nil
	case "binary64", "double", "float64":
		return Binary64, nil
	}
	return 0, fmt.Errorf("prism: unknown precision %q", s)
}

// MantissaBits returns the number of explicitly stored significand bits.
func (p Precision) MantissaBits() int {
	if p == Binary32 {
		return 23
	}
	return 52
}

// MinExponent returns the exponent of the smallest normal number.
func (p Precision) MinExponent() int {
	if p == Binary32 {
		return -126
	}
	return -1022
}

// PrecisionOf returns the precision of T.
func PrecisionOf[T Floats]() Precision {
	var dummy T
	if unsafe.Sizeof(dummy) == 4 {
		return Binary32
	}
	return Binary64
}
