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

	"github.com/ajroetker/go-prism/prism/interflop"
)

// Destinations of Call.
const (
	// Broadcast addresses the frontend and every backend.
	Broadcast = -1

	// Frontend addresses the frontend only. Backends are addressed by
	// their 1-based registration position.
	Frontend = 0
)

// Call sends a control request. dst is Broadcast, Frontend, or n to reach
// the n-th backend in registration order. Backends receive the request in
// registration order; those without a HandleCall slot are skipped. Errors
// from backends are joined.
func (rt *Runtime) Call(dst int, op interflop.Opcode, args ...any) error {
	if !op.Valid() {
		return fmt.Errorf("%w: %v", ErrUnknownOpcode, op)
	}
	if err := op.CheckArgs(args); err != nil {
		return err
	}
	if dst < Broadcast || dst > len(rt.backends) {
		return fmt.Errorf("%w: %d (have %d backends)", ErrBadDestination, dst, len(rt.backends))
	}

	if dst == Broadcast || dst == Frontend {
		rt.handleCall(op, args)
	}
	if dst == Frontend {
		return nil
	}

	var errs []error
	for i, b := range rt.backends {
		if dst != Broadcast && dst != i+1 {
			continue
		}
		if b.Ops.HandleCall == nil {
			continue
		}
		if err := b.Ops.HandleCall(op, b.State, args); err != nil {
			errs = append(errs, fmt.Errorf("%s: %v: %w", b.Name, op, err))
		}
	}
	return errors.Join(errs...)
}

// handleCall is the frontend's own share of a request. The frontend keeps
// no numeric state, so it only records the request.
func (rt *Runtime) handleCall(op interflop.Opcode, args []any) {
	rt.logger.Debug("control request", "op", op.String(), "args", args)
}
