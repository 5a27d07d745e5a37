package rounding

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/ajroetker/go-prism/prism/rng"
)

func newState(seed uint64) *rng.State {
	var st rng.State
	st.Reset(seed)
	return &st
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("rr"); err == nil {
		t.Error("ParseMode(\"rr\") should fail")
	}
}

func TestUpDownBounded64(t *testing.T) {
	st := newState(1)
	r := rand.New(rand.NewPCG(1, 1))
	for range 10000 {
		x := (r.Float64() - 0.5) * math.Ldexp(1, r.IntN(200)-100)
		if x == 0 {
			continue
		}
		y := UpDown(x, st)
		if y != math.Nextafter(x, math.Inf(1)) && y != math.Nextafter(x, math.Inf(-1)) {
			t.Fatalf("UpDown(%v) = %v, not an adjacent value", x, y)
		}
	}
}

func TestUpDownBounded32(t *testing.T) {
	st := newState(2)
	r := rand.New(rand.NewPCG(2, 2))
	for range 10000 {
		x := float32((r.Float64() - 0.5) * math.Ldexp(1, r.IntN(100)-50))
		if x == 0 {
			continue
		}
		y := UpDown(x, st)
		if y != math.Nextafter32(x, float32(math.Inf(1))) && y != math.Nextafter32(x, float32(math.Inf(-1))) {
			t.Fatalf("UpDown(%v) = %v, not an adjacent value", x, y)
		}
	}
}

func TestUpDownBothDirections(t *testing.T) {
	st := newState(3)
	up, down := 0, 0
	for range 1000 {
		if UpDown(1.0, st) > 1.0 {
			up++
		} else {
			down++
		}
	}
	if up == 0 || down == 0 {
		t.Errorf("UpDown(1) moved up %d and down %d times", up, down)
	}
}

func TestUpDownSubnormalBoundary(t *testing.T) {
	// The smallest positive subnormal steps to +0 or to the next subnormal.
	tiny := math.Float64frombits(1)
	st := newState(4)
	for range 100 {
		y := UpDown(tiny, st)
		if y != 0 && y != math.Float64frombits(2) {
			t.Fatalf("UpDown(min subnormal) = %v", y)
		}
		if y == 0 && math.Signbit(y) {
			t.Fatalf("UpDown(min subnormal) crossed to -0")
		}
	}
}

func TestUpDownAtMaxFloat(t *testing.T) {
	st := newState(6)
	maxes := []float64{math.MaxFloat64, -math.MaxFloat64}
	for _, m := range maxes {
		inf, below := 0, 0
		for range 200 {
			switch y := UpDown(m, st); y {
			case math.Inf(int(math.Copysign(1, m))):
				inf++
			case math.Nextafter(m, 0):
				below++
			default:
				t.Fatalf("UpDown(%v) = %v", m, y)
			}
		}
		if inf == 0 || below == 0 {
			t.Errorf("UpDown(%v) gave Inf %d and the predecessor %d times", m, inf, below)
		}
	}

	m32 := float32(math.MaxFloat32)
	for _, m := range []float32{m32, -m32} {
		sawInf := false
		for range 200 {
			y := UpDown(m, st)
			if math.IsInf(float64(y), 0) {
				if math.Signbit(float64(y)) != math.Signbit(float64(m)) {
					t.Fatalf("UpDown(%v) = %v", m, y)
				}
				sawInf = true
			} else if y != math.Nextafter32(m, 0) {
				t.Fatalf("UpDown(%v) = %v", m, y)
			}
		}
		if !sawInf {
			t.Errorf("UpDown(%v) never reached Inf", m)
		}
	}
}

func TestNoDrawForSpecials(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	cases := []struct {
		name string
		fn   func(st *rng.State) float64
	}{
		{"UpDown(+0)", func(st *rng.State) float64 { return UpDown(0.0, st) }},
		{"UpDown(-0)", func(st *rng.State) float64 { return UpDown(math.Copysign(0, -1), st) }},
		{"UpDown(NaN)", func(st *rng.State) float64 { return UpDown(nan, st) }},
		{"UpDown(Inf)", func(st *rng.State) float64 { return UpDown(inf, st) }},
		{"AddUD(Inf,1)", func(st *rng.State) float64 { return AddUD(inf, 1, st) }},
		{"AddSR(NaN,1)", func(st *rng.State) float64 { return AddSR(nan, 1, st) }},
		{"AddSR(Inf,-Inf)", func(st *rng.State) float64 { return AddSR(inf, -inf, st) }},
		{"AddSR(overflow)", func(st *rng.State) float64 { return AddSR(math.MaxFloat64, math.MaxFloat64, st) }},
		{"MulSR(Inf,0)", func(st *rng.State) float64 { return MulSR(inf, 0, st) }},
		{"DivSR(1,0)", func(st *rng.State) float64 { return DivSR(1.0, 0, st) }},
		{"DivSR(1,Inf)", func(st *rng.State) float64 { return DivSR(1, inf, st) }},
		{"SqrtSR(-1)", func(st *rng.State) float64 { return SqrtSR(-1.0, st) }},
		{"FMASR(NaN,1,1)", func(st *rng.State) float64 { return FMASR(nan, 1, 1, st) }},
		{"CastSR(Inf)", func(st *rng.State) float64 { return float64(CastSR(inf, st)) }},
		{"CastSR(1e300)", func(st *rng.State) float64 { return float64(CastSR(1e300, st)) }},
	}
	for _, tc := range cases {
		st := newState(5)
		before := *st
		tc.fn(st)
		if *st != before {
			t.Errorf("%s consumed a draw", tc.name)
		}
	}
}

func TestSRConsumesOneDraw(t *testing.T) {
	cases := []struct {
		name string
		fn   func(st *rng.State)
	}{
		{"AddSR", func(st *rng.State) { AddSR(0.1, 0.2, st) }},
		{"AddSR exact", func(st *rng.State) { AddSR(1.0, 1.0, st) }},
		{"MulSR", func(st *rng.State) { MulSR(0.1, 0.3, st) }},
		{"DivSR", func(st *rng.State) { DivSR(1.0, 3.0, st) }},
		{"SqrtSR", func(st *rng.State) { SqrtSR(2.0, st) }},
		{"FMASR", func(st *rng.State) { FMASR(0.1, 0.2, 0.3, st) }},
		{"CastSR", func(st *rng.State) { CastSR(0.1, st) }},
	}
	for _, tc := range cases {
		st, ref := newState(6), newState(6)
		tc.fn(st)
		ref.Float64()
		if *st != *ref {
			t.Errorf("%s did not consume exactly one Float64 draw", tc.name)
		}
	}
}

func TestRoundProbability(t *testing.T) {
	// err is a quarter of the gap above 1, so the successor is picked
	// about a quarter of the time.
	gap := math.Nextafter(1, 2) - 1
	st := newState(7)
	const n = 100000
	up := 0
	for range n {
		if Round(1.0, gap/4, st.Float64()) != 1.0 {
			up++
		}
	}
	if frac := float64(up) / n; math.Abs(frac-0.25) > 0.01 {
		t.Errorf("Round picked the neighbor %.4f of the time, want 0.25", frac)
	}
	if Round(1.0, 0, 0.5) != 1.0 {
		t.Error("Round with zero error should be the identity")
	}
	if got := Round(float32(0), -1e-46, 1e-9); got != -math.Float32frombits(1) {
		t.Errorf("Round(0, -tiny) = %v, want -min subnormal", got)
	}
}

func TestSRLandsOnNeighbor(t *testing.T) {
	st := newState(8)
	r := rand.New(rand.NewPCG(8, 8))
	for range 10000 {
		a, b := r.Float64()-0.5, r.Float64()*1e-3
		s := a + b
		got := AddSR(a, b, st)
		if got != s && got != math.Nextafter(s, math.Inf(1)) && got != math.Nextafter(s, math.Inf(-1)) {
			t.Fatalf("AddSR(%v, %v) = %v, rounded %v", a, b, got, s)
		}
	}
}

func TestSRExactIsIdentity(t *testing.T) {
	st := newState(9)
	for range 100 {
		if got := AddSR(1.5, 0.25, st); got != 1.75 {
			t.Fatalf("AddSR(1.5, 0.25) = %v", got)
		}
		if got := MulSR(float32(3), 0.5, st); got != 1.5 {
			t.Fatalf("MulSR(3, 0.5) = %v", got)
		}
		if got := DivSR(1.0, 4.0, st); got != 0.25 {
			t.Fatalf("DivSR(1, 4) = %v", got)
		}
		if got := SqrtSR(float32(16), st); got != 4 {
			t.Fatalf("SqrtSR(16) = %v", got)
		}
		if got := SqrtSR(0.0, st); got != 0 {
			t.Fatalf("SqrtSR(0) = %v", got)
		}
		if got := CastSR(0.5, st); got != 0.5 {
			t.Fatalf("CastSR(0.5) = %v", got)
		}
	}
}

func TestCastSR(t *testing.T) {
	st := newState(10)
	a := 1 + math.Ldexp(1, -30)
	lo, hi := float32(1), math.Nextafter32(1, 2)
	sawHi := false
	for range 1000000 {
		got := CastSR(a, st)
		if got != lo && got != hi {
			t.Fatalf("CastSR(%v) = %v", a, got)
		}
		sawHi = sawHi || got == hi
	}
	if !sawHi {
		t.Error("CastSR never rounded up")
	}
}

// TestSRUnbiased accumulates 0.1 in binary32 and compares the signed error of
// stochastic rounding with round-to-nearest.
func TestSRUnbiased(t *testing.T) {
	const n = 100000
	const runs = 10
	x := float32(0.1)
	exact := float64(x) * n

	var rn float32
	for range n {
		rn += x
	}
	rnErr := float64(rn) - exact

	srErr := 0.0
	for run := range runs {
		st := newState(uint64(100 + run))
		var sum float32
		for range n {
			sum = AddSR(sum, x, st)
		}
		srErr += float64(sum) - exact
	}
	srErr /= runs

	if math.Abs(srErr) >= 1.0 {
		t.Errorf("stochastic rounding mean error = %v, want |err| < 1", srErr)
	}
	if math.Abs(srErr) >= math.Abs(rnErr) {
		t.Errorf("stochastic rounding error %v not smaller than round-to-nearest error %v", srErr, rnErr)
	}
}

func TestLaneMatchesScalar(t *testing.T) {
	a, b, c := 0.1, 0.7, 0.3
	for _, mode := range Modes() {
		for _, op := range Ops() {
			fn := Lane[float64](mode, op)
			if fn == nil {
				t.Fatalf("Lane(%v, %v) is nil", mode, op)
			}
			st, ref := newState(11), newState(11)
			got := fn(a, b, c, st)

			var want float64
			switch {
			case mode == ModeSR && op == OpAdd:
				want = AddSR(a, b, ref)
			case mode == ModeSR && op == OpSub:
				want = SubSR(a, b, ref)
			case mode == ModeSR && op == OpMul:
				want = MulSR(a, b, ref)
			case mode == ModeSR && op == OpDiv:
				want = DivSR(a, b, ref)
			case mode == ModeSR && op == OpFMA:
				want = FMASR(a, b, c, ref)
			case op == OpAdd:
				want = AddUD(a, b, ref)
			case op == OpSub:
				want = SubUD(a, b, ref)
			case op == OpMul:
				want = MulUD(a, b, ref)
			case op == OpDiv:
				want = DivUD(a, b, ref)
			case op == OpFMA:
				want = FMAUD(a, b, c, ref)
			}
			if got != want {
				t.Errorf("Lane(%v, %v): got %v, want %v", mode, op, got, want)
			}
		}
	}
}

func BenchmarkAddSR(b *testing.B) {
	st := newState(1)
	sum := 0.0
	for b.Loop() {
		sum = AddSR(sum, 0.1, st)
	}
	_ = sum
}
