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

package rng

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"
	"time"
)

// Seeder hands out seeds to per-thread States.
//
// Every State seeded by a Seeder gets a rank from an atomic counter, in the
// order threads first draw. With a chosen seed the State is reset to
// seed^rank, so the sequence of each thread is reproducible as long as the
// threads register in the same order. Without one, OS entropy replaces the
// seed. A Seeder is safe for concurrent use.
type Seeder struct {
	seed       atomic.Uint64
	chosen     atomic.Bool
	generation atomic.Uint64
	ranks      atomic.Uint64
}

// NewSeeder returns a Seeder. When chosen is false seed is ignored and every
// thread is seeded from entropy.
func NewSeeder(seed uint64, chosen bool) *Seeder {
	sd := &Seeder{}
	sd.seed.Store(seed)
	sd.chosen.Store(chosen)
	sd.generation.Store(1)
	return sd
}

// Seed returns the configured seed and whether it was chosen by the user.
func (sd *Seeder) Seed() (seed uint64, chosen bool) {
	return sd.seed.Load(), sd.chosen.Load()
}

// Reseed makes seed the chosen seed. States seeded earlier are reset on
// their next Ensure and ranks are handed out from zero again.
func (sd *Seeder) Reseed(seed uint64) {
	sd.seed.Store(seed)
	sd.chosen.Store(true)
	sd.ranks.Store(0)
	sd.generation.Add(1)
}

// Ensure seeds s if it has not been seeded under the current generation.
// It is the lazy "initialize on first access" guard of a thread's state and
// costs one atomic load once the state is ready. The rank is taken from the
// seeder's counter, in first-draw order.
func (sd *Seeder) Ensure(s *State) {
	if sd.current(s) {
		return
	}
	sd.reset(s, sd.ranks.Add(1)-1)
}

// EnsureRank is Ensure with a rank fixed by the caller, typically the
// registration order of the owning thread. Threads that draw in any order
// then still get reproducible streams.
func (sd *Seeder) EnsureRank(s *State, rank uint64) {
	if sd.current(s) {
		return
	}
	sd.ranks.Add(1)
	sd.reset(s, rank)
}

func (sd *Seeder) current(s *State) bool {
	return s.ready && s.generation == sd.generation.Load()
}

func (sd *Seeder) reset(s *State, rank uint64) {
	gen := sd.generation.Load()
	seed, chosen := sd.seed.Load(), sd.chosen.Load()
	if !chosen {
		seed = entropy()
	}
	s.Reset(seed ^ rank)
	s.Chosen = chosen
	s.generation = gen
}

// Ranks returns how many States have been seeded in the current generation.
func (sd *Seeder) Ranks() uint64 {
	return sd.ranks.Load()
}

// entropy returns 64 bits from the OS, or the clock if the OS source fails.
func entropy() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(buf[:])
}
