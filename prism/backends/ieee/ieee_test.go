package ieee

import (
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-prism/prism"
	"github.com/ajroetker/go-prism/prism/frontend"
	"github.com/ajroetker/go-prism/prism/interflop"
)

func newRuntime(t *testing.T, opts frontend.Options, args ...string) (*frontend.Runtime, *State) {
	t.Helper()
	reg := frontend.NewRegistry()
	require.NoError(t, reg.Add(Name, Init, args))
	rt := frontend.New(reg, frontend.WithOptions(opts))
	t.Cleanup(func() { assert.NoError(t, rt.Finalize()) })
	return rt, rt.Backends()[0].State.(*State)
}

func TestRegistered(t *testing.T) {
	_, ok := interflop.Lookup(Name)
	assert.True(t, ok)
}

func TestInitErrors(t *testing.T) {
	_, _, err := Init([]string{"--count"})
	assert.Error(t, err)
}

func TestNativeResults(t *testing.T) {
	rt, _ := newRuntime(t, frontend.InstAll)
	th := rt.NewThread()

	x, y := 0.1, 0.2
	assert.Equal(t, x+y, th.AddDouble(x, y))
	assert.Equal(t, y-x, th.SubDouble(y, x))
	assert.Equal(t, x*3, th.MulDouble(x, 3))
	assert.Equal(t, 1.0/3, th.DivDouble(1, 3))
	assert.Equal(t, math.Sqrt(2), th.SqrtDouble(2))
	assert.Equal(t, math.FMA(0.1, 0.2, 0.3), th.FMADouble(0.1, 0.2, 0.3))

	fx, fy := float32(0.1), float32(3)
	assert.Equal(t, fx+fy, th.AddFloat(fx, fy))
	assert.Equal(t, fx/fy, th.DivFloat(fx, fy))
	assert.Equal(t, float32(math.Sqrt(2)), th.SqrtFloat(2))
	assert.Equal(t, float32(0.1), th.CastDoubleToFloat(0.1))

	assert.Equal(t, 1, th.CmpDouble(interflop.PredOLT, 1, 2))
	assert.Equal(t, 0, th.CmpDouble(interflop.PredOEQ, math.NaN(), math.NaN()))
	assert.Equal(t, 1, th.CmpFloat(interflop.PredUNO, float32(math.NaN()), 1))

	dst := make([]float64, 3)
	th.MulDoubleVec(dst, []float64{1, 2, 3}, []float64{0.5, 0.5, 0.5})
	assert.Equal(t, []float64{0.5, 1, 1.5}, dst)
}

func TestCounting(t *testing.T) {
	rt, s := newRuntime(t, frontend.InstAll, "--count-op")
	assert.True(t, s.Counting())
	th := rt.NewThread()
	for range 3 {
		th.AddDouble(1, 2)
	}
	th.MulFloat(1, 2)
	th.CmpDouble(interflop.PredOGT, 1, 2)
	th.CastDoubleToFloat(1)
	th.AddFloatVec(make([]float32, 4), make([]float32, 4), make([]float32, 4))

	assert.Equal(t, map[Key]uint64{
		{OpAdd, prism.Binary64}:  3,
		{OpAdd, prism.Binary32}:  4,
		{OpMul, prism.Binary32}:  1,
		{OpCmp, prism.Binary64}:  1,
		{OpCast, prism.Binary64}: 1,
	}, s.Counts())

	require.NoError(t, rt.Call(frontend.Broadcast, interflop.Custom, "reset"))
	assert.Empty(t, s.Counts())
	assert.Error(t, rt.Call(1, interflop.Custom, "flush"))
}

func TestNotCountingByDefault(t *testing.T) {
	rt, s := newRuntime(t, 0)
	rt.NewThread().AddDouble(1, 2)
	assert.Zero(t, s.Count(OpAdd, prism.Binary64))
}

func TestQuietSlotsDoNotAllocate(t *testing.T) {
	ops, _, err := Init(nil)
	require.NoError(t, err)
	var (
		r64 float64
		r32 float32
		c   int
	)
	slots := map[string]func(){
		"add":  func() { ops.AddDouble(1, 2, &r64, nil) },
		"sqrt": func() { ops.SqrtFloat(4, &r32, nil) },
		"cmp":  func() { ops.CmpDouble(interflop.PredOLT, 1, 2, &c, nil) },
		"cast": func() { ops.CastDoubleToFloat(0.5, &r32, nil) },
	}
	for name, fn := range slots {
		assert.Zero(t, testing.AllocsPerRun(100, fn), name)
	}
}

func TestCollector(t *testing.T) {
	rt, s := newRuntime(t, 0, "--count-op")
	th := rt.NewThread()
	th.AddDouble(1, 2)
	th.AddDouble(1, 2)
	th.SqrtFloat(4)

	want := `
# HELP prism_ieee_operations_total Floating-point operations seen by the ieee backend.
# TYPE prism_ieee_operations_total counter
prism_ieee_operations_total{op="add",precision="binary64"} 2
prism_ieee_operations_total{op="sqrt",precision="binary32"} 1
`
	require.NoError(t, testutil.CollectAndCompare(s.Collector(), strings.NewReader(want)))
	assert.Equal(t, 2, testutil.CollectAndCount(s.Collector()))
}

func TestFunctionHooks(t *testing.T) {
	rt, _ := newRuntime(t, frontend.InstFunc, "--debug")
	th := rt.NewThread()
	th.Enter("outer")
	th.Enter("inner")
	assert.Equal(t, []string{"outer", "inner"}, th.Stack().Names())
	th.Exit()
	th.Exit()
	assert.Zero(t, th.Stack().Depth())
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "fma", OpFMA.String())
	assert.Equal(t, "Op(42)", Op(42).String())
}
