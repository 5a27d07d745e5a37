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

// Package rounding implements the two noise-injection policies applied to
// the result of every instrumented operation.
//
// Up-or-down (UD) moves the IEEE result one unit in the last place up or
// down, chosen by one random bit. Stochastic rounding (SR) computes the exact
// rounding error of the operation with an error-free transform and rounds
// the result to one of its two neighbors with probability proportional to
// the distance, so the expected error is zero:
//
//	var st rng.State
//	st.Reset(42)
//	sum := float32(0)
//	for range n {
//	    sum = rounding.AddSR(sum, 0.1, &st)
//	}
//
// Special operands (NaN, ±Inf) are returned unchanged without consuming a
// random draw. Every other SR operation consumes exactly one Float64 draw
// and every perturbed UD operation exactly one Bool draw.
package rounding

import (
	"fmt"
	"math"

	"github.com/ajroetker/go-prism/prism"
	"github.com/ajroetker/go-prism/prism/rng"
)

// Mode selects the noise-injection policy.
type Mode int

const (
	// ModeSR is stochastic rounding.
	ModeSR Mode = iota

	// ModeUD is up-or-down perturbation.
	ModeUD
)

// Modes returns all modes.
func Modes() []Mode {
	return []Mode{ModeSR, ModeUD}
}

func (m Mode) String() string {
	switch m {
	case ModeSR:
		return "sr"
	case ModeUD:
		return "ud"
	default:
		return "unknown"
	}
}

// ParseMode parses "sr" or "ud".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "sr", "SR":
		return ModeSR, nil
	case "ud", "UD":
		return ModeUD, nil
	}
	return 0, fmt.Errorf("rounding: unknown mode %q", s)
}

func isFinite[T prism.Floats](x T) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// nudge adds +1 or -1 to the bit pattern of x.
func nudge[T prism.Floats](x T, plus bool) T {
	if prism.PrecisionOf[T]() == prism.Binary32 {
		b := math.Float32bits(float32(x))
		if plus {
			b++
		} else {
			b--
		}
		return T(math.Float32frombits(b))
	}
	b := math.Float64bits(float64(x))
	if plus {
		b++
	} else {
		b--
	}
	return T(math.Float64frombits(b))
}

// neighbor returns the representable value adjacent to x toward +Inf when
// up is true, toward -Inf otherwise.
func neighbor[T prism.Floats](x T, up bool) T {
	dir := math.Inf(-1)
	if up {
		dir = math.Inf(1)
	}
	if prism.PrecisionOf[T]() == prism.Binary32 {
		return T(math.Nextafter32(float32(x), float32(dir)))
	}
	return T(math.Nextafter(float64(x), dir))
}

// UpDown returns x moved by one ulp in a random direction. Zero, NaN and
// ±Inf are returned unchanged and consume no draw.
//
// The step away from zero at ±MaxFloat gives ±Inf, as IEEE nextUp and
// nextDown do; unlike Round, UpDown does not saturate.
func UpDown[T prism.Floats](x T, st *rng.State) T {
	if x == 0 || !isFinite(x) {
		return x
	}
	return nudge(x, st.Bool())
}

// Round returns x or its neighbor in the direction of err, where err is the
// exact difference between the mathematical result and x. The neighbor is
// chosen when z < |err|/gap, gap being the distance between x and that
// neighbor, so for z uniform in (0, 1) the expected result is x + err.
//
// A neighbor that is infinite is never chosen.
func Round[T prism.Floats](x T, err float64, z float64) T {
	if err == 0 || math.IsNaN(err) {
		return x
	}
	y := neighbor(x, err > 0)
	gap := math.Abs(float64(y) - float64(x))
	if math.IsInf(gap, 0) {
		return x
	}
	if z < math.Abs(err)/gap {
		return y
	}
	return x
}
