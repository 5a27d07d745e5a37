package interflop

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-prism/prism"
)

func TestPredicateEval(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		p          Predicate
		lt, eq, un bool // results for (1,2), (2,2), (NaN,2)
	}{
		{PredFalse, false, false, false},
		{PredOEQ, false, true, false},
		{PredOGT, false, false, false},
		{PredOGE, false, true, false},
		{PredOLT, true, false, false},
		{PredOLE, true, true, false},
		{PredONE, true, false, false},
		{PredORD, true, true, false},
		{PredUNO, false, false, true},
		{PredUEQ, false, true, true},
		{PredUGT, false, false, true},
		{PredUGE, false, true, true},
		{PredULT, true, false, true},
		{PredULE, true, true, true},
		{PredUNE, true, false, true},
		{PredTrue, true, true, true},
	}
	require.Len(t, tests, len(Predicates()))
	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			assert.Equal(t, tt.lt, tt.p.Eval64(1, 2), "(1, 2)")
			assert.Equal(t, tt.eq, tt.p.Eval64(2, 2), "(2, 2)")
			assert.Equal(t, tt.un, tt.p.Eval64(nan, 2), "(NaN, 2)")
			assert.Equal(t, tt.un, tt.p.Eval32(2, float32(nan)), "(2, NaN) binary32")
			assert.Equal(t, tt.lt, tt.p.Eval32(1, 2), "(1, 2) binary32")
		})
	}
}

func TestParsePredicate(t *testing.T) {
	for _, p := range Predicates() {
		got, err := ParsePredicate(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePredicate("lt")
	assert.Error(t, err)
	assert.Equal(t, "Predicate(99)", Predicate(99).String())
}

func TestOpcodeCheckArgs(t *testing.T) {
	var f32 float32
	tests := []struct {
		name string
		op   Opcode
		args []any
		ok   bool
	}{
		{"seed", SetSeed, []any{uint64(42)}, true},
		{"seed int", SetSeed, []any{7}, true},
		{"seed missing", SetSeed, nil, false},
		{"seed string", SetSeed, []any{"42"}, false},
		{"precision", SetPrecision, []any{prism.Binary32, 10}, true},
		{"precision no format", SetPrecision, []any{10, 10}, false},
		{"range", SetRange, []any{prism.Binary64, 8}, true},
		{"mode", SetMode, []any{"ud"}, true},
		{"mode int", SetMode, []any{1}, false},
		{"inexact", SetInexact, []any{&f32}, true},
		{"inexact value", SetInexact, []any{f32}, false},
		{"custom", Custom, []any{"reset", 1, 2}, true},
		{"custom empty", Custom, nil, false},
		{"unknown", Opcode(42), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.CheckArgs(tt.args)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
	assert.True(t, Custom.Valid())
	assert.False(t, Opcode(-1).Valid())
	assert.ErrorIs(t, SetSeed.CheckArgs(nil), ErrBadArgs)
}

func TestFunctionStack(t *testing.T) {
	var s FunctionStack
	_, ok := s.Pop()
	assert.False(t, ok)

	s.Push("main")
	f := s.Push("kernel")
	assert.Equal(t, 1, f.Depth)
	assert.Equal(t, []string{"main", "kernel"}, s.Names())

	top, ok := s.Top()
	require.True(t, ok)
	assert.Equal(t, "kernel", top.Name)

	f, ok = s.Pop()
	require.True(t, ok)
	assert.Equal(t, "kernel", f.Name)
	assert.Equal(t, 1, s.Depth())
}

func TestRegister(t *testing.T) {
	fn := func(args []string) (*Ops, any, error) { return &Ops{}, nil, nil }
	Register("interflop-test", fn)

	got, ok := Lookup("interflop-test")
	require.True(t, ok)
	ops, _, err := got(nil)
	require.NoError(t, err)
	assert.NotNil(t, ops)
	assert.Contains(t, Names(), "interflop-test")

	assert.Panics(t, func() { Register("interflop-test", fn) })
	assert.Panics(t, func() { Register("interflop-nil", nil) })

	_, ok = Lookup("missing")
	assert.False(t, ok)
}
