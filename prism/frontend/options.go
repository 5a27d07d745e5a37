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

package frontend

import (
	"log/slog"
	"strings"

	"github.com/samber/lo"
)

// Options are the feature flags of a Runtime.
type Options uint

const (
	// InstCmp instruments comparisons. Without it comparisons return the
	// native result.
	InstCmp Options = 1 << iota

	// DDebug enables the delta-debug filter.
	DDebug

	// InstFunc calls the backends' function entry and exit hooks.
	InstFunc

	// InstFMA instruments fused multiply-add.
	InstFMA

	// InstCast instruments binary64 to binary32 conversion.
	InstCast

	// InstAll enables every instrumentation class. It does not include
	// DDebug.
	InstAll = InstCmp | InstFunc | InstFMA | InstCast
)

type optionName struct {
	name string
	opt  Options
}

var optionNames = []optionName{
	{"inst-cmp", InstCmp},
	{"ddebug", DDebug},
	{"inst-func", InstFunc},
	{"inst-fma", InstFMA},
	{"inst-cast", InstCast},
}

// Has reports whether all of x are set.
func (o Options) Has(x Options) bool {
	return o&x == x
}

func (o Options) String() string {
	names := lo.FilterMap(optionNames, func(n optionName, _ int) (string, bool) {
		return n.name, o.Has(n.opt)
	})
	return strings.Join(names, ",")
}

// ParseOptions parses a comma-separated option list such as
// "inst-cmp,inst-fma". Unknown tokens are logged as warnings and ignored.
func ParseOptions(s string, logger *slog.Logger) Options {
	if logger == nil {
		logger = slog.Default()
	}
	var o Options
	for _, tok := range splitList(s, ",") {
		if tok == "all" {
			o |= InstAll
			continue
		}
		n, ok := lo.Find(optionNames, func(n optionName) bool {
			return n.name == tok
		})
		if !ok {
			logger.Warn("unknown option ignored", "option", tok)
			continue
		}
		o |= n.opt
	}
	return o
}

// splitList splits s on sep and drops empty, trimmed tokens.
func splitList(s, sep string) []string {
	return lo.FilterMap(strings.Split(s, sep), func(tok string, _ int) (string, bool) {
		tok = strings.TrimSpace(tok)
		return tok, tok != ""
	})
}
