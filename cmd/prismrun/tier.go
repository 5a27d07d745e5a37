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
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-prism/prism"
	"github.com/ajroetker/go-prism/prism/contrib/vector"
)

func newTierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tier",
		Short: "Print the detected and compiled SIMD tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			cur, static := prism.CurrentLevel(), prism.StaticLevel()
			fmt.Fprintf(w, "features: %s\n", prism.CurrentFeatures())
			fmt.Fprintf(w, "dynamic:  %s (%s, %d bytes)\n", cur, cur.Family(), cur.Width())
			fmt.Fprintf(w, "static:   %s (%s, %d bytes)\n", static, static.Family(), static.Width())
			if prism.NoSimdEnv() {
				fmt.Fprintln(w, "PRISM_NO_SIMD is set; dynamic dispatch is scalar")
			}
			names := lo.Map(vector.Float64.Levels(), func(l prism.DispatchLevel, _ int) string {
				return l.String()
			})
			fmt.Fprintf(w, "kernels:  %s (%d float32, %d float64)\n",
				strings.Join(names, " "), vector.Float32.Len(), vector.Float64.Len())
			return nil
		},
	}
}
