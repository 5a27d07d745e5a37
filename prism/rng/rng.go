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

// Package rng provides the per-thread pseudo-random streams used by the noise
// backends: a xoroshiro128++ generator seeded through splitmix64.
//
// A State is owned by exactly one thread of execution and is never locked.
// States are seeded lazily by a Seeder, which hands every new state a unique
// rank so that threads sharing a global seed still draw distinct streams:
//
//	seeder := rng.NewSeeder(42, true)
//
//	var st rng.State
//	seeder.Ensure(&st)
//	z := st.Float64() // in (0, 1)
package rng

import (
	"math"
	"math/bits"
)

// SplitMix64 advances a splitmix64 state by one step and returns the
// avalanched output. Close inputs give unrelated outputs, which is what
// seed expansion needs.
func SplitMix64(x uint64) uint64 {
	z := x + 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// State is a xoroshiro128++ generator plus the bookkeeping needed for lazy
// per-thread seeding. The zero value is unseeded; call Seeder.Ensure or Reset
// before drawing.
type State struct {
	s0, s1 uint64

	// Seed is the value the generator was last reset with.
	Seed uint64

	// Chosen reports whether Seed came from the user rather than entropy.
	Chosen bool

	ready      bool
	generation uint64
}

// Ready reports whether the state has been seeded.
func (s *State) Ready() bool {
	return s.ready
}

// Reset seeds the generator. The first state word is splitmix64 of seed and
// the second is splitmix64 of the first.
func (s *State) Reset(seed uint64) {
	s.Seed = seed
	s.s0 = SplitMix64(seed)
	s.s1 = SplitMix64(s.s0)
	s.ready = true
}

// Uint64 returns the next 64 random bits.
func (s *State) Uint64() uint64 {
	s0, s1 := s.s0, s.s1
	out := bits.RotateLeft64(s0+s1, 17) + s0

	s1 ^= s0
	s.s0 = bits.RotateLeft64(s0, 49) ^ s1 ^ (s1 << 21)
	s.s1 = bits.RotateLeft64(s1, 28)
	return out
}

// Uint32 returns the high 32 bits of the next draw.
func (s *State) Uint32() uint32 {
	return uint32(s.Uint64() >> 32)
}

// Bool returns one random bit, the sign bit of the next draw.
func (s *State) Bool() bool {
	return s.Uint64()>>63 != 0
}

// Float64 returns a uniform value in the open interval (0, 1).
//
// The top 52 bits of a draw become the mantissa of a binary64 in [1, 2),
// and 1 is subtracted. The single draw that would produce exactly 0 is
// replaced by the next one.
func (s *State) Float64() float64 {
	for {
		x := s.Uint64()
		f := math.Float64frombits(0x3FF<<52|x>>12) - 1.0
		if f != 0 {
			return f
		}
	}
}
