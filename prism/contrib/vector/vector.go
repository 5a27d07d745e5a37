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

// Package vector provides the ISA-tiered vector kernels of the noise
// backends.
//
// Every kernel perturbs a fixed number of lanes (2, 4, 8 or 16). The scalar
// tier applies a rounding.Lane function to one lane at a time. The other
// tiers first compute the IEEE results and their exact rounding errors in
// blocks of the tier's register width, using the Vec operations of
// ops_base.go or, on amd64 with GOEXPERIMENT=simd, archsimd AVX2 and AVX-512
// vectors. They then draw from the RNG and round lane by lane. Kernels are
// registered into Float32 and Float64 at init for the tiers the target
// architecture can run.
//
// # Selection
//
// Static selects the kernel compiled for the tier implied by the build
// target (prism.StaticLevel). Dynamic selects it for the tier detected at
// startup (prism.CurrentLevel). Both fall back to narrower tiers, then to
// scalar, when a tier has no entry:
//
//	k := vector.Float64.Dynamic(rounding.ModeSR, rounding.OpAdd, 4)
//	k(&st, dst, a, b, nil)
//
// Every tier computes the same error-free transforms and draws in lane
// order, so all tiers return bit-identical results for the same RNG state.
package vector

import (
	"fmt"

	"github.com/ajroetker/go-prism/prism"
	"github.com/ajroetker/go-prism/prism/contrib/rounding"
	"github.com/ajroetker/go-prism/prism/rng"
)

// Widths lists the lane counts that have kernels.
var Widths = []int{2, 4, 8, 16}

// IsWidth reports whether n is one of Widths.
func IsWidth(n int) bool {
	return n == 2 || n == 4 || n == 8 || n == 16
}

// Key identifies one kernel.
type Key struct {
	Mode  rounding.Mode
	Op    rounding.Op
	Width int
	Level prism.DispatchLevel
}

func (k Key) String() string {
	return fmt.Sprintf("%v_%v_%dx_%v", k.Mode, k.Op, k.Width, k.Level)
}

// Kernel computes Width lanes of dst from a and b, and c for OpFMA. The
// slices must hold at least Width elements; c is ignored by other ops.
type Kernel[T prism.Floats] func(st *rng.State, dst, a, b, c []T)

// Table maps keys to kernels. It is filled from init functions and is
// read-only afterwards.
type Table[T prism.Floats] struct {
	kernels map[Key]Kernel[T]
}

// NewTable returns an empty table.
func NewTable[T prism.Floats]() *Table[T] {
	return &Table[T]{kernels: make(map[Key]Kernel[T])}
}

var (
	// Float32 holds the binary32 kernels.
	Float32 = NewTable[float32]()

	// Float64 holds the binary64 kernels.
	Float64 = NewTable[float64]()
)

// Register adds k under key, replacing any previous entry. It must only be
// called during package initialization.
func (t *Table[T]) Register(key Key, k Kernel[T]) {
	t.kernels[key] = k
}

// Lookup returns the kernel registered under exactly key.
func (t *Table[T]) Lookup(key Key) (Kernel[T], bool) {
	k, ok := t.kernels[key]
	return k, ok
}

// Select returns the kernel for level, or for the first narrower tier in
// its fallback chain that has one, and the tier actually used. Tiers whose
// kernels need instructions this CPU lacks are skipped.
func (t *Table[T]) Select(mode rounding.Mode, op rounding.Op, width int, level prism.DispatchLevel) (Kernel[T], prism.DispatchLevel) {
	for l := level; ; l = l.Fallback() {
		if k, ok := t.kernels[Key{Mode: mode, Op: op, Width: width, Level: l}]; ok && runnable(l) {
			return k, l
		}
		if l == prism.DispatchScalar {
			return nil, prism.DispatchScalar
		}
	}
}

// Static returns the kernel for the build target's tier.
func (t *Table[T]) Static(mode rounding.Mode, op rounding.Op, width int) Kernel[T] {
	k, _ := t.Select(mode, op, width, prism.StaticLevel())
	return k
}

// Dynamic returns the kernel for the tier detected at startup.
func (t *Table[T]) Dynamic(mode rounding.Mode, op rounding.Op, width int) Kernel[T] {
	k, _ := t.Select(mode, op, width, prism.CurrentLevel())
	return k
}

// Levels returns the tiers that have at least one kernel, in
// prism.Levels order.
func (t *Table[T]) Levels() []prism.DispatchLevel {
	seen := make(map[prism.DispatchLevel]bool)
	for key := range t.kernels {
		seen[key.Level] = true
	}
	var levels []prism.DispatchLevel
	for _, l := range prism.Levels() {
		if seen[l] {
			levels = append(levels, l)
		}
	}
	return levels
}

// Len returns the number of registered kernels.
func (t *Table[T]) Len() int {
	return len(t.kernels)
}
