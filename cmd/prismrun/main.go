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

// Command prismrun inspects and exercises the Monte Carlo Arithmetic runtime.
//
// Usage:
//
//	prismrun tier                                   # detected and compiled SIMD tiers
//	prismrun sample --backends "prism --seed=1"     # noisy sums and their spread
//	prismrun sample --backends "prism; ieee --count-op" --metrics
//
// Unset flags fall back to the PRISM_ environment variables read by
// frontend.ConfigFromEnv.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/ajroetker/go-prism/prism/backends/ieee"
	_ "github.com/ajroetker/go-prism/prism/backends/noise"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "prismrun",
		Short:         "Inspect and exercise the Monte Carlo Arithmetic runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("--log-level: %w", err)
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	root.AddCommand(newTierCmd(), newSampleCmd())
	return root
}
