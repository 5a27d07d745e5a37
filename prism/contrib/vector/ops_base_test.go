package vector

import (
	"math"
	"slices"
	"testing"

	"github.com/ajroetker/go-prism/prism"
	"github.com/ajroetker/go-prism/prism/contrib/eft"
	"github.com/ajroetker/go-prism/prism/contrib/rounding"
)

func TestVecOps(t *testing.T) {
	a := []float64{1, -2, 0.1, 1e300, 3}
	b := []float64{3, 0.5, 0.2, 1e10, 7}
	c := []float64{0.25, 1, -0.03, 0, -21}
	va, vb, vc := Load(a, 5), Load(b, 5), Load(c, 5)
	if va.NumLanes() != 5 {
		t.Fatalf("NumLanes() = %d, want 5", va.NumLanes())
	}

	tests := []struct {
		name string
		got  Vec[float64]
		want func(i int) float64
	}{
		{"Add", Add(va, vb), func(i int) float64 { return a[i] + b[i] }},
		{"Sub", Sub(va, vb), func(i int) float64 { return a[i] - b[i] }},
		{"Mul", Mul(va, vb), func(i int) float64 { return float64(a[i] * b[i]) }},
		{"Div", Div(va, vb), func(i int) float64 { return a[i] / b[i] }},
		{"Neg", Neg(va), func(i int) float64 { return -a[i] }},
		{"FMA", FMA(va, vb, vc), func(i int) float64 { return math.FMA(a[i], b[i], c[i]) }},
	}
	for _, tt := range tests {
		for i := range 5 {
			if got, want := tt.got.Lane(i), tt.want(i); got != want {
				t.Errorf("%s lane %d: got %v, want %v", tt.name, i, got, want)
			}
		}
	}

	dst := make([]float64, 8)
	Store(Add(va, vb), dst)
	if dst[4] != 10 || dst[5] != 0 {
		t.Errorf("Store wrote %v", dst)
	}
}

func TestVecFMASingleRoundingFloat32(t *testing.T) {
	// 1+2^-12 squared needs 25 bits; adding -1 exposes a double rounding.
	x := float32(1 + 1.0/4096)
	a := Load([]float32{x, 3}, 2)
	c := Load([]float32{-1, 0.5}, 2)
	got := FMA(a, a, c)
	for i, want := range []float32{eft.FMA(x, x, -1), eft.FMA(float32(3), 3, 0.5)} {
		if got.Lane(i) != want {
			t.Errorf("lane %d: got %v, want %v", i, got.Lane(i), want)
		}
	}
}

func TestNegKeepsZeroSign(t *testing.T) {
	v := Neg(Load([]float64{0}, 1))
	if !math.Signbit(v.Lane(0)) {
		t.Error("Neg(+0) should be -0")
	}
}

func TestIsFinite(t *testing.T) {
	v := Load([]float32{1, float32(math.Inf(-1)), float32(math.NaN()), 0, math.MaxFloat32}, 5)
	ok := make([]bool, 5)
	IsFinite(v).Store(ok)
	if want := []bool{true, false, false, true, true}; !slices.Equal(ok, want) {
		t.Errorf("IsFinite = %v, want %v", ok, want)
	}

	w := Load([]float32{float32(math.NaN()), 1, 1, 1, 1}, 5)
	IsFinite(v).And(IsFinite(w)).Store(ok)
	if want := []bool{false, false, false, true, true}; !slices.Equal(ok, want) {
		t.Errorf("And = %v, want %v", ok, want)
	}
}

func TestLoadClampsLanes(t *testing.T) {
	if n := Load(make([]float64, 3), 8).NumLanes(); n != 3 {
		t.Errorf("Load of 3 elements has %d lanes", n)
	}
	if n := Load(make([]float32, 40), 40).NumLanes(); n != MaxVecLanes {
		t.Errorf("Load of 40 elements has %d lanes, want %d", n, MaxVecLanes)
	}
}

func TestBlockLanes(t *testing.T) {
	tests := []struct {
		tag      prism.Tag
		f32, f64 int
	}{
		{prism.ScalarTag{}, 1, 1},
		{prism.FixedTag128{}, 4, 2},
		{prism.FixedTag256{}, 8, 4},
		{prism.FixedTag512{}, 16, 8},
	}
	for _, tt := range tests {
		if got := BlockLanes[float32](tt.tag); got != tt.f32 {
			t.Errorf("BlockLanes[float32](%s) = %d, want %d", tt.tag.Name(), got, tt.f32)
		}
		if got := BlockLanes[float64](tt.tag); got != tt.f64 {
			t.Errorf("BlockLanes[float64](%s) = %d, want %d", tt.tag.Name(), got, tt.f64)
		}
	}
}

func TestProcessWithTail(t *testing.T) {
	var full, tail [][2]int
	ProcessWithTail[float64](prism.FixedTag256{}, 10,
		func(off int) { full = append(full, [2]int{off, 4}) },
		func(off, n int) { tail = append(tail, [2]int{off, n}) })
	if want := [][2]int{{0, 4}, {4, 4}}; !slices.Equal(full, want) {
		t.Errorf("full blocks = %v, want %v", full, want)
	}
	if want := [][2]int{{8, 2}}; !slices.Equal(tail, want) {
		t.Errorf("tail = %v, want %v", tail, want)
	}

	full, tail = nil, nil
	ProcessWithTail[float32](prism.FixedTag128{}, 8,
		func(off int) { full = append(full, [2]int{off, 4}) },
		func(off, n int) { tail = append(tail, [2]int{off, n}) })
	if len(full) != 2 || tail != nil {
		t.Errorf("aligned size: full %v, tail %v", full, tail)
	}
}

// eftTerms computes the head and error terms of one lane with the scalar
// error-free transforms.
func eftTerms(op rounding.Op, a, b, c float64) (head, e1, e2 float64) {
	switch op {
	case rounding.OpAdd:
		head, e1 = eft.TwoSum(a, b)
	case rounding.OpSub:
		head, e1 = eft.TwoSum(a, -b)
	case rounding.OpMul:
		head, e1 = eft.TwoProdFMA(a, b)
	case rounding.OpDiv:
		head = a / b
		e1 = eft.DivResidual(a, b, head)
	case rounding.OpFMA:
		head, e1, e2 = eft.ErrFMA(a, b, c)
	}
	return head, e1, e2
}

func TestFillBaseMatchesEFT(t *testing.T) {
	a, b, c := inputs[float64](16, 3)
	for _, op := range rounding.Ops() {
		var tm terms[float64]
		fillBase(op, true, &tm, a, b, c, 0, 16)
		for i := range 16 {
			head, e1, e2 := eftTerms(op, a[i], b[i], c[i])
			if tm.head[i] != head || tm.e1[i] != e1 || tm.e2[i] != e2 || !tm.ok[i] {
				t.Errorf("%v lane %d: got (%v, %v, %v, %v), want (%v, %v, %v, true)",
					op, i, tm.head[i], tm.e1[i], tm.e2[i], tm.ok[i], head, e1, e2)
			}
		}
	}
}

func TestFillBaseFlagsSpecialLanes(t *testing.T) {
	inf := math.Inf(1)
	a := []float64{1, inf, math.NaN(), 1e308, 1}
	b := []float64{2, 1, 1, 10, 0}
	var tm terms[float64]
	fillBase(rounding.OpMul, true, &tm, a, b, nil, 0, 5)
	want := []bool{true, false, false, false, true}
	if !slices.Equal(tm.ok[:5], want) {
		t.Errorf("mul ok = %v, want %v", tm.ok[:5], want)
	}
	fillBase(rounding.OpDiv, true, &tm, a, b, nil, 0, 5)
	want = []bool{true, false, false, true, false}
	if !slices.Equal(tm.ok[:5], want) {
		t.Errorf("div ok = %v, want %v", tm.ok[:5], want)
	}
}
