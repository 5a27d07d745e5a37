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
	"errors"
	"fmt"
	"slices"

	"github.com/ajroetker/go-prism/prism/interflop"
)

// MaxBackends is the capacity of a Registry.
const MaxBackends = 16

var (
	// ErrRegistryFrozen is returned when adding to a registry that a
	// Runtime has already been built from.
	ErrRegistryFrozen = errors.New("frontend: registry is frozen")

	// ErrTooManyBackends is returned when a registry is full.
	ErrTooManyBackends = fmt.Errorf("frontend: more than %d backends", MaxBackends)

	// ErrUnknownBackend is returned by Load for a name nobody registered.
	ErrUnknownBackend = errors.New("frontend: unknown backend")

	// ErrUnknownOpcode is returned by Call for an opcode outside the
	// control protocol.
	ErrUnknownOpcode = errors.New("frontend: unknown opcode")

	// ErrBadDestination is returned by Call for a destination that names
	// no backend.
	ErrBadDestination = errors.New("frontend: bad destination")
)

// Entry is one loaded backend.
type Entry struct {
	Name  string
	Args  []string
	Ops   *interflop.Ops
	State any
}

// Registry is the ordered list of loaded backends. It is built during
// single-threaded initialization and frozen when a Runtime is created from
// it. Registration order is dispatch order.
type Registry struct {
	entries []Entry
	frozen  bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add initializes a backend with args and appends it.
func (r *Registry) Add(name string, init interflop.InitFunc, args []string) error {
	if r.frozen {
		return fmt.Errorf("adding %s: %w", name, ErrRegistryFrozen)
	}
	if len(r.entries) >= MaxBackends {
		return fmt.Errorf("adding %s: %w", name, ErrTooManyBackends)
	}
	ops, state, err := init(args)
	if err != nil {
		return fmt.Errorf("frontend: init %s: %w", name, err)
	}
	if ops == nil {
		return fmt.Errorf("frontend: init %s returned no operations", name)
	}
	r.entries = append(r.entries, Entry{
		Name:  name,
		Args:  slices.Clone(args),
		Ops:   ops,
		State: state,
	})
	return nil
}

// Load adds the backend registered under name with interflop.Register.
func (r *Registry) Load(name string, args []string) error {
	init, ok := interflop.Lookup(name)
	if !ok {
		return fmt.Errorf("%w %q (registered: %v)", ErrUnknownBackend, name, interflop.Names())
	}
	return r.Add(name, init, args)
}

// Len returns the number of loaded backends.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entry returns the i-th backend, counting from 0.
func (r *Registry) Entry(i int) Entry {
	return r.entries[i]
}

// finalize releases the backends of a registry no Runtime was built from.
func (r *Registry) finalize() error {
	return errors.Join(finalizeEntries(r.entries)...)
}

// finalizeEntries calls every entry's Finalize in order and collects the
// errors.
func finalizeEntries(entries []Entry) []error {
	var errs []error
	for _, b := range entries {
		if b.Ops.Finalize == nil {
			continue
		}
		if err := b.Ops.Finalize(b.State); err != nil {
			errs = append(errs, fmt.Errorf("finalize %s: %w", b.Name, err))
		}
	}
	return errs
}

// Freeze forbids further additions.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	return r.frozen
}
