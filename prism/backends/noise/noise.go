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

// Package noise is the Monte Carlo Arithmetic backend, registered as
// "prism". It perturbs every arithmetic result with stochastic rounding or
// up-or-down noise:
//
//	import _ "github.com/ajroetker/go-prism/prism/backends/noise"
//
//	PRISM_BACKENDS="prism --mode=sr --seed=42" ./program
//
// Flags:
//
//	--mode=sr|ud               noise policy (default sr)
//	--dispatch=dynamic|static  vector tier selection (default dynamic)
//	--seed=N                   fixed seed; without it every run differs
//
// Comparisons are not perturbed and have no slot.
package noise

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/spf13/pflag"

	"github.com/ajroetker/go-prism/prism"
	"github.com/ajroetker/go-prism/prism/contrib/rounding"
	"github.com/ajroetker/go-prism/prism/contrib/vector"
	"github.com/ajroetker/go-prism/prism/interflop"
	"github.com/ajroetker/go-prism/prism/rng"
)

// Name is the registered backend name.
const Name = "prism"

// inexactRank keeps the SetInexact stream apart from thread streams, which
// are ranked from 0.
const inexactRank = ^uint64(0)

func init() {
	interflop.Register(Name, Init)
}

// State is the backend state shared by all threads.
type State struct {
	seeder *rng.Seeder
	mode   atomic.Int32
	static bool
	logger *slog.Logger

	// inexact serves SetInexact requests, which arrive without a thread.
	inexactMu  sync.Mutex
	inexactRNG rng.State
}

// Mode returns the current noise policy.
func (s *State) Mode() rounding.Mode {
	return rounding.Mode(s.mode.Load())
}

// Static reports whether vector kernels are selected for the build target
// rather than the detected CPU.
func (s *State) Static() bool {
	return s.static
}

// Seeder returns the seeder of the per-thread streams.
func (s *State) Seeder() *rng.Seeder {
	return s.seeder
}

// Init parses args and returns the backend.
func Init(args []string) (*interflop.Ops, any, error) {
	fs := pflag.NewFlagSet(Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	mode := fs.String("mode", "sr", "noise mode: sr or ud")
	dispatch := fs.String("dispatch", "dynamic", "vector tier selection: dynamic or static")
	seed := fs.Uint64("seed", 0, "RNG seed; random when unset")
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", Name, err)
	}

	m, err := rounding.ParseMode(*mode)
	if err != nil {
		return nil, nil, err
	}
	s := &State{
		seeder: rng.NewSeeder(*seed, fs.Changed("seed")),
		logger: slog.Default().With("backend", Name),
	}
	s.mode.Store(int32(m))
	switch *dispatch {
	case "dynamic":
	case "static":
		s.static = true
	default:
		return nil, nil, fmt.Errorf("%s: unknown dispatch %q", Name, *dispatch)
	}

	s.logger.Debug("initialized",
		"mode", m.String(),
		"dispatch", *dispatch,
		"seeded", fs.Changed("seed"),
		"level", s.level().String())
	return s.ops(), s, nil
}

func (s *State) level() prism.DispatchLevel {
	if s.static {
		return prism.StaticLevel()
	}
	return prism.CurrentLevel()
}

func (s *State) ops() *interflop.Ops {
	return &interflop.Ops{
		AddFloat: binaryOp(s, rounding.AddUD[float32], rounding.AddSR[float32]),
		SubFloat: binaryOp(s, rounding.SubUD[float32], rounding.SubSR[float32]),
		MulFloat: binaryOp(s, rounding.MulUD[float32], rounding.MulSR[float32]),
		DivFloat: binaryOp(s, rounding.DivUD[float32], rounding.DivSR[float32]),

		AddDouble: binaryOp(s, rounding.AddUD[float64], rounding.AddSR[float64]),
		SubDouble: binaryOp(s, rounding.SubUD[float64], rounding.SubSR[float64]),
		MulDouble: binaryOp(s, rounding.MulUD[float64], rounding.MulSR[float64]),
		DivDouble: binaryOp(s, rounding.DivUD[float64], rounding.DivSR[float64]),

		SqrtFloat:  unaryOp(s, rounding.SqrtUD[float32], rounding.SqrtSR[float32]),
		SqrtDouble: unaryOp(s, rounding.SqrtUD[float64], rounding.SqrtSR[float64]),

		FMAFloat:  fmaOp(s, rounding.FMAUD[float32], rounding.FMASR[float32]),
		FMADouble: fmaOp(s, rounding.FMAUD[float64], rounding.FMASR[float64]),

		CastDoubleToFloat: s.cast,

		AddFloatVec: vectorOp(s, vector.Float32, rounding.OpAdd),
		SubFloatVec: vectorOp(s, vector.Float32, rounding.OpSub),
		MulFloatVec: vectorOp(s, vector.Float32, rounding.OpMul),
		DivFloatVec: vectorOp(s, vector.Float32, rounding.OpDiv),
		FMAFloatVec: vectorFMAOp(s, vector.Float32),

		AddDoubleVec: vectorOp(s, vector.Float64, rounding.OpAdd),
		SubDoubleVec: vectorOp(s, vector.Float64, rounding.OpSub),
		MulDoubleVec: vectorOp(s, vector.Float64, rounding.OpMul),
		DivDoubleVec: vectorOp(s, vector.Float64, rounding.OpDiv),
		FMADoubleVec: vectorFMAOp(s, vector.Float64),

		HandleCall: s.handleCall,
		Finalize:   s.finalize,
	}
}

// stream returns the calling thread's RNG, seeding it on first use.
func (s *State) stream(ctx *interflop.Context) *rng.State {
	st := &ctx.Thread.RNG
	s.seeder.EnsureRank(st, ctx.Thread.Rank)
	return st
}

func binaryOp[T prism.Floats](s *State, ud, sr func(a, b T, st *rng.State) T) func(a, b T, res *T, ctx *interflop.Context) {
	return func(a, b T, res *T, ctx *interflop.Context) {
		if s.Mode() == rounding.ModeUD {
			*res = ud(a, b, s.stream(ctx))
			return
		}
		*res = sr(a, b, s.stream(ctx))
	}
}

func unaryOp[T prism.Floats](s *State, ud, sr func(a T, st *rng.State) T) func(a T, res *T, ctx *interflop.Context) {
	return func(a T, res *T, ctx *interflop.Context) {
		if s.Mode() == rounding.ModeUD {
			*res = ud(a, s.stream(ctx))
			return
		}
		*res = sr(a, s.stream(ctx))
	}
}

func fmaOp[T prism.Floats](s *State, ud, sr func(a, b, c T, st *rng.State) T) func(a, b, c T, res *T, ctx *interflop.Context) {
	return func(a, b, c T, res *T, ctx *interflop.Context) {
		if s.Mode() == rounding.ModeUD {
			*res = ud(a, b, c, s.stream(ctx))
			return
		}
		*res = sr(a, b, c, s.stream(ctx))
	}
}

func (s *State) cast(a float64, res *float32, ctx *interflop.Context) {
	if s.Mode() == rounding.ModeUD {
		*res = rounding.CastUD(a, s.stream(ctx))
		return
	}
	*res = rounding.CastSR(a, s.stream(ctx))
}

// kernel returns the tiered kernel for n lanes, or nil when n is not a
// kernel width.
func kernel[T prism.Floats](s *State, tab *vector.Table[T], op rounding.Op, n int) vector.Kernel[T] {
	if !vector.IsWidth(n) {
		return nil
	}
	if s.static {
		return tab.Static(s.Mode(), op, n)
	}
	return tab.Dynamic(s.Mode(), op, n)
}

func vectorOp[T prism.Floats](s *State, tab *vector.Table[T], op rounding.Op) func(a, b, res []T, ctx *interflop.Context) {
	return func(a, b, res []T, ctx *interflop.Context) {
		st := s.stream(ctx)
		if k := kernel(s, tab, op, len(res)); k != nil {
			k(st, res, a, b, nil)
			return
		}
		lane := rounding.Lane[T](s.Mode(), op)
		var zero T
		for i := range res {
			res[i] = lane(a[i], b[i], zero, st)
		}
	}
}

func vectorFMAOp[T prism.Floats](s *State, tab *vector.Table[T]) func(a, b, c, res []T, ctx *interflop.Context) {
	return func(a, b, c, res []T, ctx *interflop.Context) {
		st := s.stream(ctx)
		if k := kernel(s, tab, rounding.OpFMA, len(res)); k != nil {
			k(st, res, a, b, c)
			return
		}
		lane := rounding.Lane[T](s.Mode(), rounding.OpFMA)
		for i := range res {
			res[i] = lane(a[i], b[i], c[i], st)
		}
	}
}

func (s *State) handleCall(op interflop.Opcode, _ any, args []any) error {
	switch op {
	case interflop.SetSeed:
		seed, _ := interflop.Uint64Arg(args[0])
		s.seeder.Reseed(seed)
		s.logger.Debug("reseeded", "seed", seed)
	case interflop.SetMode:
		m, err := rounding.ParseMode(args[0].(string))
		if err != nil {
			return err
		}
		s.mode.Store(int32(m))
		s.logger.Debug("mode changed", "mode", m.String())
	case interflop.SetInexact:
		s.inexactMu.Lock()
		defer s.inexactMu.Unlock()
		s.seeder.EnsureRank(&s.inexactRNG, inexactRank)
		switch p := args[0].(type) {
		case *float32:
			*p = rounding.UpDown(*p, &s.inexactRNG)
		case *float64:
			*p = rounding.UpDown(*p, &s.inexactRNG)
		}
	}
	return nil
}

func (s *State) finalize(any) error {
	seed, chosen := s.seeder.Seed()
	attrs := []any{"mode", s.Mode().String(), "threads", s.seeder.Ranks()}
	if chosen {
		attrs = append(attrs, "seed", seed)
	}
	s.logger.Debug("finalized", attrs...)
	return nil
}
