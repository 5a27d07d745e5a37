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

package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-prism/prism/backends/ieee"
	"github.com/ajroetker/go-prism/prism/frontend"
)

type sampleFlags struct {
	backends string
	options  string
	runs     int
	n        int
	value    float64
	workers  int
	lanes    int
	metrics  bool
}

func newSampleCmd() *cobra.Command {
	var f sampleFlags
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Sum a constant many times under noise and report the spread",
		Long: `Each run sums --value --n times on its own thread. Without noise every
run gives the same result; with the prism backend the runs spread, and
the spread estimates how many significant digits the sum keeps.

With --lanes the sum is carried in that many partial sums updated with
vector operations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := frontend.ConfigFromEnv()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("backends") || len(cfg.Backends) == 0 {
				cfg.Backends = frontend.ParseBackends(f.backends)
			}
			if flags.Changed("options") {
				cfg.Options = f.options
			}
			return runSample(cmd.OutOrStdout(), cfg, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.backends, "backends", "prism", `backend list, e.g. "prism --mode=ud; ieee --count-op"`)
	fl.StringVar(&f.options, "options", "", "runtime options, e.g. inst-fma,inst-cmp")
	fl.IntVar(&f.runs, "runs", 16, "number of noisy runs")
	fl.IntVar(&f.n, "n", 10000, "terms per sum")
	fl.Float64Var(&f.value, "value", 0.1, "term added at each step")
	fl.IntVar(&f.workers, "workers", 0, "worker goroutines (default GOMAXPROCS)")
	fl.IntVar(&f.lanes, "lanes", 0, "partial sums updated with vector operations (0 for scalar)")
	fl.BoolVar(&f.metrics, "metrics", false, "print ieee backend counters in Prometheus text format")
	return cmd
}

func runSample(w io.Writer, cfg frontend.Config, f sampleFlags) (err error) {
	if f.runs <= 0 || f.n <= 0 {
		return errors.New("--runs and --n must be positive")
	}
	rt, err := frontend.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, rt.Finalize()) }()

	pool := rt.NewPool(f.workers)
	sums := make([]float64, f.runs)
	pool.ParallelFor(f.runs, func(t *frontend.Thread, start, end int) {
		for i := start; i < end; i++ {
			sums[i] = accumulate(t, f.value, f.n, f.lanes)
		}
	})
	pool.Close()

	st := summarize(sums)
	fmt.Fprintf(w, "exact:   %.17g\n", f.value*float64(f.n))
	fmt.Fprintf(w, "mean:    %.17g\n", st.mean)
	fmt.Fprintf(w, "stddev:  %.3g\n", st.stddev)
	fmt.Fprintf(w, "digits:  %.2f\n", st.digits)

	if f.metrics {
		return writeMetrics(w, rt)
	}
	return nil
}

func accumulate(t *frontend.Thread, value float64, n, lanes int) float64 {
	if lanes <= 0 {
		sum := 0.0
		for range n {
			sum = t.AddDouble(sum, value)
		}
		return sum
	}

	acc, next := make([]float64, lanes), make([]float64, lanes)
	step := make([]float64, lanes)
	for i := range step {
		step[i] = value
	}
	for range n / lanes {
		t.AddDoubleVec(next, acc, step)
		acc, next = next, acc
	}
	sum := 0.0
	for _, x := range acc {
		sum = t.AddDouble(sum, x)
	}
	for range n % lanes {
		sum = t.AddDouble(sum, value)
	}
	return sum
}

type stats struct {
	mean, stddev, digits float64
}

// summarize returns the sample mean and standard deviation of xs, and the
// number of significant decimal digits they agree on, capped at binary64
// precision.
func summarize(xs []float64) stats {
	maxDigits := 53 * math.Log10(2)
	if slices.Min(xs) == slices.Max(xs) {
		return stats{mean: xs[0], digits: maxDigits}
	}
	var st stats
	for _, x := range xs {
		st.mean += x
	}
	st.mean /= float64(len(xs))
	for _, x := range xs {
		d := x - st.mean
		st.stddev += d * d
	}
	st.stddev = math.Sqrt(st.stddev / float64(len(xs)-1))
	if st.mean != 0 {
		st.digits = min(max(-math.Log10(st.stddev/math.Abs(st.mean)), 0), maxDigits)
	}
	return st
}

// writeMetrics prints the counters of every ieee backend. With more than one
// their series carry a backend label holding the dispatch position.
func writeMetrics(w io.Writer, rt *frontend.Runtime) error {
	type counted struct {
		pos int
		s   *ieee.State
	}
	states := lo.FilterMap(rt.Backends(), func(b frontend.Entry, i int) (counted, bool) {
		s, ok := b.State.(*ieee.State)
		return counted{i, s}, ok
	})
	reg := prometheus.NewRegistry()
	for _, c := range states {
		var r prometheus.Registerer = reg
		if len(states) > 1 {
			r = prometheus.WrapRegistererWith(prometheus.Labels{"backend": strconv.Itoa(c.pos)}, reg)
		}
		if err := r.Register(c.s.Collector()); err != nil {
			return err
		}
	}
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
