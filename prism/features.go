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
	"fmt"
	"strings"
)

// tierRequirement lists the feature flags a level needs.
type tierRequirement struct {
	level    DispatchLevel
	features []string
}

// tierPriority is checked top to bottom: wider tiers come first so that a
// feature string satisfying several tiers selects the widest one.
var tierPriority = []tierRequirement{
	{DispatchAVX512, []string{"avx512f", "avx512dq", "avx512bw", "avx512vl"}},
	{DispatchAVX2, []string{"avx2", "fma"}},
	{DispatchSSE2, []string{"sse2"}},
	{DispatchSVE2, []string{"sve2"}},
	{DispatchSVE, []string{"sve"}},
	{DispatchNEON, []string{"asimd"}},
}

// RequiredFeatures returns the feature flags SelectLevel needs to pick level.
// DispatchScalar requires nothing.
func RequiredFeatures(level DispatchLevel) []string {
	for _, req := range tierPriority {
		if req.level == level {
			return append([]string(nil), req.features...)
		}
	}
	return nil
}

// SelectLevel returns the highest tier whose required flags all appear in
// features, a list of CPU flags separated by spaces or commas in the style
// of /proc/cpuinfo ("sse2 avx2 fma"). Matching is case-insensitive.
// A string matching no tier selects DispatchScalar.
func SelectLevel(features string) DispatchLevel {
	have := make(map[string]bool)
	for _, f := range strings.FieldsFunc(features, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	}) {
		have[strings.ToLower(f)] = true
	}
	for _, req := range tierPriority {
		ok := true
		for _, f := range req.features {
			if !have[f] {
				ok = false
				break
			}
		}
		if ok {
			return req.level
		}
	}
	return DispatchScalar
}

// ParseLevel converts a level name as printed by String back to a level.
func ParseLevel(name string) (DispatchLevel, error) {
	for _, l := range Levels() {
		if strings.EqualFold(l.String(), name) {
			return l, nil
		}
	}
	return DispatchScalar, fmt.Errorf("prism: unknown dispatch level %q", name)
}
