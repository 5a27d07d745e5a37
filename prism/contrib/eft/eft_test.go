package eft

import (
	"math"
	"math/big"
	"math/rand/v2"
	"testing"
)

// exact returns a big.Float with enough precision to hold any sum or product
// of the operands used in these tests without rounding.
func exact(x float64) *big.Float {
	return new(big.Float).SetPrec(4096).SetFloat64(x)
}

func sumOf(xs ...float64) *big.Float {
	s := exact(0)
	for _, x := range xs {
		s.Add(s, exact(x))
	}
	return s
}

func randFloat64(r *rand.Rand) float64 {
	// Mantissa-rich values over a moderate exponent range.
	return (r.Float64()*2 - 1) * math.Ldexp(1, r.IntN(80)-40)
}

func TestTwoSumExact(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := range 10000 {
		a, b := randFloat64(r), randFloat64(r)
		s, e := TwoSum(a, b)
		if s != a+b {
			t.Fatalf("TwoSum(%v, %v): head %v != fl(a+b) %v", a, b, s, a+b)
		}
		if sumOf(s, e).Cmp(sumOf(a, b)) != 0 {
			t.Fatalf("case %d: TwoSum(%v, %v) = (%v, %v) does not reconstruct the sum", i, a, b, s, e)
		}
	}
}

func TestTwoSumFloat32Exact(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for range 10000 {
		a, b := float32(randFloat64(r)), float32(randFloat64(r))
		s, e := TwoSum(a, b)
		if sumOf(float64(s), float64(e)).Cmp(sumOf(float64(a), float64(b))) != 0 {
			t.Fatalf("TwoSum(%v, %v) = (%v, %v) does not reconstruct the sum", a, b, s, e)
		}
	}
}

func TestFastTwoSum(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for range 10000 {
		a, b := randFloat64(r), randFloat64(r)
		if math.Abs(a) < math.Abs(b) {
			a, b = b, a
		}
		s, e := FastTwoSum(a, b)
		if sumOf(s, e).Cmp(sumOf(a, b)) != 0 {
			t.Fatalf("FastTwoSum(%v, %v) = (%v, %v) does not reconstruct the sum", a, b, s, e)
		}
	}
}

func TestTwoProdFMAExact(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 8))
	for range 10000 {
		a, b := randFloat64(r), randFloat64(r)
		p, e := TwoProdFMA(a, b)
		want := new(big.Float).SetPrec(4096).Mul(exact(a), exact(b))
		if sumOf(p, e).Cmp(want) != 0 {
			t.Fatalf("TwoProdFMA(%v, %v) = (%v, %v) does not reconstruct the product", a, b, p, e)
		}
	}
}

func TestTwoProdFMAFloat32Exact(t *testing.T) {
	r := rand.New(rand.NewPCG(9, 10))
	for range 10000 {
		a, b := float32(randFloat64(r)), float32(randFloat64(r))
		p, e := TwoProdFMA(a, b)
		want := new(big.Float).SetPrec(4096).Mul(exact(float64(a)), exact(float64(b)))
		if sumOf(float64(p), float64(e)).Cmp(want) != 0 {
			t.Fatalf("TwoProdFMA(%v, %v) = (%v, %v) does not reconstruct the product", a, b, p, e)
		}
	}
}

func TestFMA32CorrectlyRounded(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 12))
	for range 20000 {
		a, b, c := float32(randFloat64(r)), float32(randFloat64(r)), float32(randFloat64(r))
		got := FMA(a, b, c)

		want := new(big.Float).SetPrec(4096).Mul(exact(float64(a)), exact(float64(b)))
		want.Add(want, exact(float64(c)))
		w, _ := new(big.Float).SetPrec(24).SetMode(big.ToNearestEven).Set(want).Float32()
		if got != w {
			t.Fatalf("FMA(%v, %v, %v) = %v, want %v", a, b, c, got, w)
		}
	}
}

func TestFMA32Midpoint(t *testing.T) {
	// a*b = 1 + 2^-11 + 2^-24 is a binary32 midpoint. A tiny positive c puts
	// the exact value just above it, so the result rounds up, while
	// fl32(fl64(a*b + c)) would lose c and round to even.
	a := float32(1 + math.Ldexp(1, -12))
	b := float32(1 + math.Ldexp(1, -12))
	c := float32(math.Ldexp(1, -60))
	got := FMA(a, b, c)
	want := float32(1 + math.Ldexp(1, -11) + math.Ldexp(1, -23))
	if got != want {
		t.Errorf("FMA midpoint: got %v, want %v", got, want)
	}

	if v := FMA(float32(math.Inf(1)), 1, 1); !math.IsInf(float64(v), 1) {
		t.Errorf("FMA(Inf, 1, 1) = %v, want +Inf", v)
	}
	if v := FMA(float32(math.NaN()), 1, 1); !math.IsNaN(float64(v)) {
		t.Errorf("FMA(NaN, 1, 1) = %v, want NaN", v)
	}
}

func TestErrFMAExact(t *testing.T) {
	r := rand.New(rand.NewPCG(13, 14))
	for range 10000 {
		a, b, c := randFloat64(r), randFloat64(r), randFloat64(r)
		r1, r2, r3 := ErrFMA(a, b, c)
		if r1 != math.FMA(a, b, c) {
			t.Fatalf("ErrFMA(%v, %v, %v): head %v != fma %v", a, b, c, r1, math.FMA(a, b, c))
		}
		want := new(big.Float).SetPrec(4096).Mul(exact(a), exact(b))
		want.Add(want, exact(c))
		if sumOf(r1, r2, r3).Cmp(want) != 0 {
			t.Fatalf("ErrFMA(%v, %v, %v) = (%v, %v, %v) does not reconstruct a*b+c", a, b, c, r1, r2, r3)
		}
	}
}

func TestDivResidual(t *testing.T) {
	r := rand.New(rand.NewPCG(15, 16))
	for range 10000 {
		a, b := randFloat64(r), randFloat64(r)
		if b == 0 {
			continue
		}
		q := a / b
		res := DivResidual(a, b, q)
		// a - q*b computed exactly.
		want := new(big.Float).SetPrec(4096).Mul(exact(q), exact(b))
		want.Sub(exact(a), want)
		if exact(res).Cmp(want) != 0 {
			t.Fatalf("DivResidual(%v, %v) = %v, want %v", a, b, res, want)
		}
	}
}

func TestSqrtResidual(t *testing.T) {
	r := rand.New(rand.NewPCG(17, 18))
	for range 10000 {
		a := math.Abs(randFloat64(r))
		s := math.Sqrt(a)
		res := SqrtResidual(a, s)
		want := new(big.Float).SetPrec(4096).Mul(exact(s), exact(s))
		want.Sub(exact(a), want)
		if exact(res).Cmp(want) != 0 {
			t.Fatalf("SqrtResidual(%v) = %v, want %v", a, res, want)
		}
	}
}
