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

package ddebug

import (
	"sync/atomic"
)

// Config names the site files of a Filter. Empty paths are unused.
type Config struct {
	// Include lists the only sites that receive noise.
	Include string `yaml:"include" json:"include"`

	// Exclude lists sites that never receive noise.
	Exclude string `yaml:"exclude" json:"exclude"`

	// Generate is written at Finalize with every site that received noise.
	Generate string `yaml:"generate" json:"generate"`
}

// Filter decides per call site whether noise injection is bypassed.
type Filter struct {
	include  *Set
	exclude  *Set
	generate *Set
	path     string

	bypassed     atomic.Uint64
	instrumented atomic.Uint64
}

// Stats counts the decisions of a Filter.
type Stats struct {
	Bypassed     uint64
	Instrumented uint64
}

// NewFilter loads the include and exclude sets named by cfg.
func NewFilter(cfg Config) (*Filter, error) {
	f := &Filter{path: cfg.Generate}
	var err error
	if cfg.Include != "" {
		if f.include, err = LoadSet(cfg.Include); err != nil {
			return nil, err
		}
	}
	if cfg.Exclude != "" {
		if f.exclude, err = LoadSet(cfg.Exclude); err != nil {
			return nil, err
		}
	}
	if cfg.Generate != "" {
		f.generate = NewSet()
	}
	return f, nil
}

// NewFilterSets builds a Filter from in-memory sets. Either set may be nil.
// A non-nil generate set records the instrumented sites.
func NewFilterSets(include, exclude, generate *Set) *Filter {
	return &Filter{include: include, exclude: exclude, generate: generate}
}

// Bypass reports whether the operation at pc must skip the backends and
// return the plain IEEE result. A site in the exclude set is bypassed even
// if it is also included. With an include set, every site outside it is
// bypassed. Without one, instrumented sites are recorded in the generate
// set, which becomes a candidate include set for a later run.
func (f *Filter) Bypass(pc uintptr) bool {
	switch {
	case f.exclude.Contains(pc):
		f.bypassed.Add(1)
		return true
	case f.include != nil:
		if !f.include.Contains(pc) {
			f.bypassed.Add(1)
			return true
		}
	case f.generate != nil:
		f.generate.Add(pc)
	}
	f.instrumented.Add(1)
	return false
}

// Generated returns the set of sites that received noise, or nil when
// generation is off.
func (f *Filter) Generated() *Set {
	return f.generate
}

// Stats returns the decision counters.
func (f *Filter) Stats() Stats {
	return Stats{Bypassed: f.bypassed.Load(), Instrumented: f.instrumented.Load()}
}

// Finalize writes the generate file, if one was configured.
func (f *Filter) Finalize() error {
	if f.generate == nil || f.path == "" {
		return nil
	}
	return f.generate.Save(f.path)
}
