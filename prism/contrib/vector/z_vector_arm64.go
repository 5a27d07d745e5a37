//go:build arm64

package vector

import "github.com/ajroetker/go-prism/prism"

func init() {
	registerScalar()
	registerLevel[prism.FixedTag128](prism.DispatchNEON, nil, nil)
	// SVE vector length is only known at run time.
	registerLevel[prism.ScalableTag](prism.DispatchSVE, nil, nil)
	registerLevel[prism.ScalableTag](prism.DispatchSVE2, nil, nil)
}

func runnable(prism.DispatchLevel) bool {
	return true
}
