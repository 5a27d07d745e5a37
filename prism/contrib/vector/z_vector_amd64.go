//go:build amd64 && !goexperiment.simd

package vector

import "github.com/ajroetker/go-prism/prism"

func init() {
	registerScalar()
	registerLevel[prism.FixedTag128](prism.DispatchSSE2, nil, nil)
	registerLevel[prism.FixedTag256](prism.DispatchAVX2, nil, nil)
	registerLevel[prism.FixedTag512](prism.DispatchAVX512, nil, nil)
}

// runnable reports whether the kernels of level can run on this CPU. Without
// archsimd every tier is portable Go.
func runnable(prism.DispatchLevel) bool {
	return true
}
