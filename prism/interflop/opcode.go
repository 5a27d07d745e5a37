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

package interflop

import (
	"errors"
	"fmt"

	"github.com/ajroetker/go-prism/prism"
)

// Opcode identifies an out-of-band control request.
type Opcode int

const (
	// SetSeed fixes the RNG seed. Args: one integer.
	SetSeed Opcode = iota

	// SetRange sets the exponent range of the virtual precision.
	// Args: prism.Precision, integer.
	SetRange

	// SetPrecision sets the virtual precision in bits.
	// Args: prism.Precision, integer.
	SetPrecision

	// SetMode selects the noise mode by name. Args: one string.
	SetMode

	// SetInexact asks the backend to perturb a value in place.
	// Args: one *float32 or *float64.
	SetInexact

	// Custom is a backend-specific request. Args: a string naming the
	// request, followed by anything.
	Custom

	numOpcodes
)

// ErrBadArgs is returned when a request's arguments do not match its opcode.
var ErrBadArgs = errors.New("interflop: bad arguments")

func (op Opcode) String() string {
	switch op {
	case SetSeed:
		return "set_seed"
	case SetRange:
		return "set_range"
	case SetPrecision:
		return "set_precision"
	case SetMode:
		return "set_mode"
	case SetInexact:
		return "set_inexact"
	case Custom:
		return "custom"
	default:
		return fmt.Sprintf("Opcode(%d)", int(op))
	}
}

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool {
	return op >= 0 && op < numOpcodes
}

// CheckArgs validates the shape of args for op.
func (op Opcode) CheckArgs(args []any) error {
	bad := func(want string) error {
		return fmt.Errorf("%w: %v wants %s, got %d args", ErrBadArgs, op, want, len(args))
	}
	switch op {
	case SetSeed:
		if len(args) != 1 {
			return bad("one integer")
		}
		if _, ok := Uint64Arg(args[0]); !ok {
			return fmt.Errorf("%w: %v wants an integer, got %T", ErrBadArgs, op, args[0])
		}
	case SetRange, SetPrecision:
		if len(args) != 2 {
			return bad("a precision and an integer")
		}
		if _, ok := args[0].(prism.Precision); !ok {
			return fmt.Errorf("%w: %v wants a prism.Precision, got %T", ErrBadArgs, op, args[0])
		}
		if _, ok := Uint64Arg(args[1]); !ok {
			return fmt.Errorf("%w: %v wants an integer, got %T", ErrBadArgs, op, args[1])
		}
	case SetMode:
		if len(args) != 1 {
			return bad("one string")
		}
		if _, ok := args[0].(string); !ok {
			return fmt.Errorf("%w: %v wants a string, got %T", ErrBadArgs, op, args[0])
		}
	case SetInexact:
		if len(args) != 1 {
			return bad("one pointer")
		}
		switch args[0].(type) {
		case *float32, *float64:
		default:
			return fmt.Errorf("%w: %v wants *float32 or *float64, got %T", ErrBadArgs, op, args[0])
		}
	case Custom:
		if len(args) == 0 {
			return bad("a request name")
		}
		if _, ok := args[0].(string); !ok {
			return fmt.Errorf("%w: %v wants a request name, got %T", ErrBadArgs, op, args[0])
		}
	default:
		return fmt.Errorf("interflop: unknown opcode %v", op)
	}
	return nil
}

// Uint64Arg converts an integer argument of any width to uint64. Negative
// values keep their two's complement bits.
func Uint64Arg(v any) (uint64, bool) {
	switch x := v.(type) {
	case int:
		return uint64(x), true
	case int32:
		return uint64(x), true
	case int64:
		return uint64(x), true
	case uint:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	}
	return 0, false
}
