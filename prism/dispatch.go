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

import (
	"os"
	"strconv"
)

// DispatchLevel represents an instruction-set tier a vectorized kernel can be
// compiled for and selected at.
type DispatchLevel int

const (
	// DispatchScalar indicates no SIMD, one lane at a time.
	DispatchScalar DispatchLevel = iota

	// DispatchSSE2 indicates SSE2 instructions (x86-64 baseline, 128-bit).
	DispatchSSE2

	// DispatchAVX2 indicates AVX2 + FMA instructions (256-bit SIMD).
	DispatchAVX2

	// DispatchAVX512 indicates AVX-512 F/DQ/BW/VL instructions (512-bit SIMD).
	DispatchAVX512

	// DispatchNEON indicates ARM NEON instructions (128-bit SIMD).
	DispatchNEON

	// DispatchSVE indicates ARM SVE instructions (scalable vector).
	DispatchSVE

	// DispatchSVE2 indicates ARM SVE2 instructions (scalable vector).
	DispatchSVE2

	numLevels
)

// Levels returns every dispatch level in enum order.
func Levels() []DispatchLevel {
	levels := make([]DispatchLevel, 0, numLevels)
	for l := DispatchScalar; l < numLevels; l++ {
		levels = append(levels, l)
	}
	return levels
}

// String returns a human-readable name for the dispatch level.
func (d DispatchLevel) String() string {
	switch d {
	case DispatchScalar:
		return "scalar"
	case DispatchSSE2:
		return "sse2"
	case DispatchAVX2:
		return "avx2"
	case DispatchAVX512:
		return "avx512"
	case DispatchNEON:
		return "neon"
	case DispatchSVE:
		return "sve"
	case DispatchSVE2:
		return "sve2"
	default:
		return "unknown"
	}
}

// Width returns the register width in bytes for the level. Scalable levels
// report their architectural minimum; scalar reports 16 for consistency with
// the 128-bit tiers.
func (d DispatchLevel) Width() int {
	switch d {
	case DispatchAVX2:
		return 32
	case DispatchAVX512:
		return 64
	default:
		return 16
	}
}

// Family returns the architecture family of the level: "x86", "arm" or
// "scalar".
func (d DispatchLevel) Family() string {
	switch d {
	case DispatchSSE2, DispatchAVX2, DispatchAVX512:
		return "x86"
	case DispatchNEON, DispatchSVE, DispatchSVE2:
		return "arm"
	default:
		return "scalar"
	}
}

// Fallback returns the next narrower level of the same architecture family,
// ending at DispatchScalar. Fallback of DispatchScalar is DispatchScalar.
func (d DispatchLevel) Fallback() DispatchLevel {
	switch d {
	case DispatchAVX512:
		return DispatchAVX2
	case DispatchAVX2:
		return DispatchSSE2
	case DispatchSVE2:
		return DispatchSVE
	case DispatchSVE:
		return DispatchNEON
	default:
		return DispatchScalar
	}
}

// currentLevel is the detected SIMD level for this runtime.
// Set by init() in dispatch_*.go files.
var currentLevel DispatchLevel

// currentWidth is the SIMD register width in bytes for the current level.
var currentWidth int

// currentName is the human-readable name of the current SIMD level.
var currentName string

// currentFeatures is the feature string the current level was selected from.
var currentFeatures string

// CurrentLevel returns the tier detected for the running CPU.
func CurrentLevel() DispatchLevel {
	return currentLevel
}

// CurrentWidth returns the SIMD register width in bytes.
// For example: 16 for SSE2/NEON, 32 for AVX2, 64 for AVX-512.
func CurrentWidth() int {
	return currentWidth
}

// CurrentName returns a human-readable name for the current SIMD target.
func CurrentName() string {
	return currentName
}

// CurrentFeatures returns the space separated CPU feature flags detection saw.
func CurrentFeatures() string {
	return currentFeatures
}

// NoSimdEnv checks if the PRISM_NO_SIMD environment variable is set.
// When set, dynamic dispatch uses the scalar tier regardless of CPU
// capabilities. This is useful for testing and debugging.
func NoSimdEnv() bool {
	val := os.Getenv("PRISM_NO_SIMD")
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

func setLevel(features string) {
	currentFeatures = features
	if NoSimdEnv() {
		currentLevel = DispatchScalar
	} else {
		currentLevel = SelectLevel(features)
	}
	currentWidth = currentLevel.Width()
	currentName = currentLevel.String()
}

// StaticLevel returns the tier the binary was compiled for. Static dispatch
// uses it instead of CurrentLevel, so the selection is made at build time:
// GOAMD64=v3 selects AVX2, GOAMD64=v4 selects AVX-512, GOARM64=v9.0 selects
// SVE2, and the architecture baselines select SSE2 and NEON.
func StaticLevel() DispatchLevel {
	return staticLevel
}
