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

// Package ieee is the reference backend, registered as "ieee". It returns
// IEEE-754 round-to-nearest results and can count or log every operation.
//
// Flags:
//
//	--count-op  count operations per kind and precision
//	--debug     log every operation at debug level
package ieee

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/ajroetker/go-prism/prism"
	"github.com/ajroetker/go-prism/prism/contrib/eft"
	"github.com/ajroetker/go-prism/prism/interflop"
)

// Name is the registered backend name.
const Name = "ieee"

func init() {
	interflop.Register(Name, Init)
}

// Op is a counted operation kind.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpSqrt
	OpFMA
	OpCmp
	OpCast
	numOps
)

var opNames = [numOps]string{"add", "sub", "mul", "div", "sqrt", "fma", "cmp", "cast"}

func (op Op) String() string {
	if op < 0 || op >= numOps {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return opNames[op]
}

// Key identifies one counter. Casts are counted under their source
// precision.
type Key struct {
	Op        Op
	Precision prism.Precision
}

// State holds the backend configuration and counters.
type State struct {
	count  bool
	debug  bool
	logger *slog.Logger

	counters [numOps][2]atomic.Uint64
}

// Counting reports whether --count-op was given.
func (s *State) Counting() bool {
	return s.count
}

// Count returns one counter.
func (s *State) Count(op Op, p prism.Precision) uint64 {
	return s.counters[op][p].Load()
}

// Counts returns a snapshot of the nonzero counters.
func (s *State) Counts() map[Key]uint64 {
	counts := make(map[Key]uint64)
	for op := range numOps {
		for _, p := range []prism.Precision{prism.Binary32, prism.Binary64} {
			if n := s.Count(op, p); n > 0 {
				counts[Key{op, p}] = n
			}
		}
	}
	return counts
}

// Reset zeroes every counter.
func (s *State) Reset() {
	for op := range numOps {
		for p := range s.counters[op] {
			s.counters[op][p].Store(0)
		}
	}
}

// Init parses args and returns the backend.
func Init(args []string) (*interflop.Ops, any, error) {
	fs := pflag.NewFlagSet(Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	count := fs.Bool("count-op", false, "count operations")
	debug := fs.Bool("debug", false, "log every operation")
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", Name, err)
	}
	s := &State{
		count:  *count,
		debug:  *debug,
		logger: slog.Default().With("backend", Name),
	}
	return s.ops(), s, nil
}

func (s *State) ops() *interflop.Ops {
	return &interflop.Ops{
		AddFloat: binaryOp(s, OpAdd, func(a, b float32) float32 { return a + b }),
		SubFloat: binaryOp(s, OpSub, func(a, b float32) float32 { return a - b }),
		MulFloat: binaryOp(s, OpMul, func(a, b float32) float32 { return a * b }),
		DivFloat: binaryOp(s, OpDiv, func(a, b float32) float32 { return a / b }),

		AddDouble: binaryOp(s, OpAdd, func(a, b float64) float64 { return a + b }),
		SubDouble: binaryOp(s, OpSub, func(a, b float64) float64 { return a - b }),
		MulDouble: binaryOp(s, OpMul, func(a, b float64) float64 { return a * b }),
		DivDouble: binaryOp(s, OpDiv, func(a, b float64) float64 { return a / b }),

		SqrtFloat: func(a float32, res *float32, _ *interflop.Context) {
			*res = float32(math.Sqrt(float64(a)))
			if s.count || s.debug {
				s.record(OpSqrt, prism.Binary32, a, *res)
			}
		},
		SqrtDouble: func(a float64, res *float64, _ *interflop.Context) {
			*res = math.Sqrt(a)
			if s.count || s.debug {
				s.record(OpSqrt, prism.Binary64, a, *res)
			}
		},

		CmpFloat:  cmpOp[float32](s),
		CmpDouble: cmpOp[float64](s),

		FMAFloat:  fmaOp[float32](s),
		FMADouble: fmaOp[float64](s),

		CastDoubleToFloat: func(a float64, res *float32, _ *interflop.Context) {
			*res = float32(a)
			if s.count || s.debug {
				s.record(OpCast, prism.Binary64, a, *res)
			}
		},

		HandleCall:    s.handleCall,
		EnterFunction: s.enter,
		ExitFunction:  s.exit,
		Finalize:      s.finalize,
	}
}

// record counts and logs one operation. Callers check s.count || s.debug
// first so that the operands are only boxed when something uses them.
func (s *State) record(op Op, p prism.Precision, args ...any) {
	if s.count {
		s.counters[op][p].Add(1)
	}
	if s.debug {
		s.logger.Debug(op.String(), "precision", p.String(), "args", args)
	}
}

func binaryOp[T prism.Floats](s *State, op Op, fn func(a, b T) T) func(a, b T, res *T, ctx *interflop.Context) {
	p := prism.PrecisionOf[T]()
	return func(a, b T, res *T, _ *interflop.Context) {
		*res = fn(a, b)
		if s.count || s.debug {
			s.record(op, p, a, b, *res)
		}
	}
}

func fmaOp[T prism.Floats](s *State) func(a, b, c T, res *T, ctx *interflop.Context) {
	p := prism.PrecisionOf[T]()
	return func(a, b, c T, res *T, _ *interflop.Context) {
		*res = eft.FMA(a, b, c)
		if s.count || s.debug {
			s.record(OpFMA, p, a, b, c, *res)
		}
	}
}

func cmpOp[T prism.Floats](s *State) func(pred interflop.Predicate, a, b T, res *int, ctx *interflop.Context) {
	p := prism.PrecisionOf[T]()
	return func(pred interflop.Predicate, a, b T, res *int, _ *interflop.Context) {
		*res = interflop.Bool(interflop.Eval(pred, a, b))
		if s.count || s.debug {
			s.record(OpCmp, p, pred.String(), a, b, *res)
		}
	}
}

func (s *State) handleCall(op interflop.Opcode, _ any, args []any) error {
	if op != interflop.Custom {
		return nil
	}
	switch req := args[0].(string); req {
	case "reset":
		s.Reset()
		s.logger.Debug("counters reset")
		return nil
	default:
		return fmt.Errorf("%s: unknown request %q", Name, req)
	}
}

func (s *State) enter(stack *interflop.FunctionStack, _ *interflop.Context) {
	if !s.debug {
		return
	}
	if f, ok := stack.Top(); ok {
		s.logger.Debug("enter", "function", f.Name, "depth", f.Depth)
	}
}

func (s *State) exit(stack *interflop.FunctionStack, _ *interflop.Context) {
	if !s.debug {
		return
	}
	if f, ok := stack.Top(); ok {
		s.logger.Debug("exit", "function", f.Name, "depth", f.Depth)
	}
}

func (s *State) finalize(any) error {
	if !s.count {
		return nil
	}
	for k, n := range s.Counts() {
		s.logger.Info("operations", "op", k.Op.String(), "precision", k.Precision.String(), "count", n)
	}
	return nil
}

var operationsDesc = prometheus.NewDesc(
	"prism_ieee_operations_total",
	"Floating-point operations seen by the ieee backend.",
	[]string{"op", "precision"}, nil,
)

// Collector exposes the counters to Prometheus. Only nonzero counters are
// reported.
func (s *State) Collector() prometheus.Collector {
	return collector{s}
}

type collector struct {
	s *State
}

func (c collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- operationsDesc
}

func (c collector) Collect(ch chan<- prometheus.Metric) {
	for k, n := range c.s.Counts() {
		ch <- prometheus.MustNewConstMetric(operationsDesc, prometheus.CounterValue, float64(n),
			k.Op.String(), k.Precision.String())
	}
}
