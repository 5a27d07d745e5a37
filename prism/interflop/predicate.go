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

package interflop

import (
	"fmt"
	"math"

	"github.com/ajroetker/go-prism/prism"
)

// Predicate is a floating-point comparison predicate. Ordered predicates
// are false when either operand is NaN, unordered ones are true.
type Predicate int

const (
	PredFalse Predicate = iota
	PredOEQ
	PredOGT
	PredOGE
	PredOLT
	PredOLE
	PredONE
	PredORD
	PredUNO
	PredUEQ
	PredUGT
	PredUGE
	PredULT
	PredULE
	PredUNE
	PredTrue
	numPredicates
)

var predicateNames = [numPredicates]string{
	"false", "oeq", "ogt", "oge", "olt", "ole", "one", "ord",
	"uno", "ueq", "ugt", "uge", "ult", "ule", "une", "true",
}

// Predicates returns all predicates.
func Predicates() []Predicate {
	ps := make([]Predicate, numPredicates)
	for i := range ps {
		ps[i] = Predicate(i)
	}
	return ps
}

func (p Predicate) String() string {
	if p < 0 || p >= numPredicates {
		return fmt.Sprintf("Predicate(%d)", int(p))
	}
	return predicateNames[p]
}

// ParsePredicate parses a predicate name such as "olt".
func ParsePredicate(s string) (Predicate, error) {
	for i, name := range predicateNames {
		if name == s {
			return Predicate(i), nil
		}
	}
	return 0, fmt.Errorf("interflop: unknown predicate %q", s)
}

// Eval evaluates p natively.
func Eval[T prism.Floats](p Predicate, a, b T) bool {
	unordered := math.IsNaN(float64(a)) || math.IsNaN(float64(b))
	switch p {
	case PredFalse:
		return false
	case PredOEQ:
		return !unordered && a == b
	case PredOGT:
		return !unordered && a > b
	case PredOGE:
		return !unordered && a >= b
	case PredOLT:
		return !unordered && a < b
	case PredOLE:
		return !unordered && a <= b
	case PredONE:
		return !unordered && a != b
	case PredORD:
		return !unordered
	case PredUNO:
		return unordered
	case PredUEQ:
		return unordered || a == b
	case PredUGT:
		return unordered || a > b
	case PredUGE:
		return unordered || a >= b
	case PredULT:
		return unordered || a < b
	case PredULE:
		return unordered || a <= b
	case PredUNE:
		return unordered || a != b
	case PredTrue:
		return true
	}
	return false
}

func (p Predicate) Eval32(a, b float32) bool { return Eval(p, a, b) }
func (p Predicate) Eval64(a, b float64) bool { return Eval(p, a, b) }

// Bool converts a comparison outcome to the integer result slot value.
func Bool(v bool) int {
	if v {
		return 1
	}
	return 0
}
