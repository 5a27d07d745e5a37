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

// Package ddebug implements the delta-debug filter: call-site sets that let
// the frontend skip noise injection at selected sites, so that bisection
// tools can narrow down which operations are numerically sensitive.
//
// A call site is the return address (program counter) of the instrumented
// call. Sets are stored one site per line:
//
//	# sites of main.accumulate
//	0x4a5f20 main.accumulate /src/main.go:42
//	0x4a5f88
//
// The first field is the address in hexadecimal. The rest of the line is an
// annotation that readers ignore; writers fill it with the function and
// source position of the site.
package ddebug

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrMalformedSite is returned when a line of a site file does not start
// with an address.
var ErrMalformedSite = errors.New("ddebug: malformed call site")

// Set is a set of call sites. It is safe for concurrent use; Add is an
// insert-if-absent.
type Set struct {
	m sync.Map
	n atomic.Int64
}

// NewSet returns a set holding sites.
func NewSet(sites ...uintptr) *Set {
	s := &Set{}
	for _, pc := range sites {
		s.Add(pc)
	}
	return s
}

// Add inserts pc and reports whether it was absent.
func (s *Set) Add(pc uintptr) bool {
	if _, loaded := s.m.LoadOrStore(pc, struct{}{}); loaded {
		return false
	}
	s.n.Add(1)
	return true
}

// Contains reports whether pc is in the set. A nil set is empty.
func (s *Set) Contains(pc uintptr) bool {
	if s == nil {
		return false
	}
	_, ok := s.m.Load(pc)
	return ok
}

// Len returns the number of sites.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return int(s.n.Load())
}

// Sites returns the sites in increasing order.
func (s *Set) Sites() []uintptr {
	if s == nil {
		return nil
	}
	var sites []uintptr
	s.m.Range(func(k, _ any) bool {
		sites = append(sites, k.(uintptr))
		return true
	})
	slices.Sort(sites)
	return sites
}

// ReadSet parses a site file.
func ReadSet(r io.Reader) (*Set, error) {
	s := NewSet()
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		field, _, _ := strings.Cut(text, " ")
		field, _, _ = strings.Cut(field, "\t")
		pc, err := strconv.ParseUint(field, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedSite, line, field)
		}
		s.Add(uintptr(pc))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ddebug: reading sites: %w", err)
	}
	return s, nil
}

// LoadSet reads a site file from path.
func LoadSet(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ddebug: %w", err)
	}
	defer f.Close()
	s, err := ReadSet(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// WriteTo writes the set in site file format, sorted by address.
func (s *Set) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, pc := range s.Sites() {
		k, err := bw.WriteString(formatSite(pc) + "\n")
		n += int64(k)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Save writes the set to path, replacing the file.
func (s *Set) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ddebug: %w", err)
	}
	if _, err := s.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("ddebug: writing %s: %w", path, err)
	}
	return f.Close()
}

func formatSite(pc uintptr) string {
	site := fmt.Sprintf("%#x", pc)
	// pc is a return address; the call instruction is just before it.
	fn := runtime.FuncForPC(pc - 1)
	if fn == nil {
		return site
	}
	file, line := fn.FileLine(pc - 1)
	return fmt.Sprintf("%s %s %s:%d", site, fn.Name(), file, line)
}
