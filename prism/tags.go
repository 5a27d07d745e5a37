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

package prism

import "unsafe"

// Tag represents a vector size tag that determines how many lanes a kernel
// clone processes per block. Kernels are instantiated once per tag, which is
// how one generic implementation yields a variant per instruction-set tier.
type Tag interface {
	// Width returns the width in bytes (16 for 128-bit, 32 for 256-bit, etc.)
	Width() int

	// Name returns a human-readable name for this tag ("128bit", "scalar", etc.)
	Name() string
}

// MaxLanes returns the number of T values a block of tag d holds, at least 1.
func MaxLanes[T Floats](d Tag) int {
	var dummy T
	n := d.Width() / int(unsafe.Sizeof(dummy))
	if n < 1 {
		return 1
	}
	return n
}

// ScalarTag processes one lane per block.
type ScalarTag struct{}

// Width returns 0: a scalar block holds a single lane.
func (ScalarTag) Width() int {
	return 0
}

// Name returns "scalar".
func (ScalarTag) Name() string {
	return "scalar"
}

// ScalableTag adapts to the widest SIMD detected at runtime. Used for the
// scalable vector tiers (SVE, SVE2).
type ScalableTag struct{}

// Width returns the current runtime SIMD width in bytes.
func (ScalableTag) Width() int {
	return currentWidth
}

// Name returns the current runtime SIMD target name.
func (ScalableTag) Name() string {
	return "scalable"
}

// FixedTag128 forces 128-bit blocks (SSE2, NEON).
type FixedTag128 struct{}

// Width returns 16 bytes (128 bits).
func (FixedTag128) Width() int {
	return 16
}

// Name returns "128bit".
func (FixedTag128) Name() string {
	return "128bit"
}

// FixedTag256 forces 256-bit blocks (AVX2).
type FixedTag256 struct{}

// Width returns 32 bytes (256 bits).
func (FixedTag256) Width() int {
	return 32
}

// Name returns "256bit".
func (FixedTag256) Name() string {
	return "256bit"
}

// FixedTag512 forces 512-bit blocks (AVX-512).
type FixedTag512 struct{}

// Width returns 64 bytes (512 bits).
func (FixedTag512) Width() int {
	return 64
}

// Name returns "512bit".
func (FixedTag512) Name() string {
	return "512bit"
}
