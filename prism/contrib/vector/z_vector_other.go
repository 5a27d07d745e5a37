//go:build !amd64 && !arm64

package vector

import "github.com/ajroetker/go-prism/prism"

func init() {
	registerScalar()
}

func runnable(prism.DispatchLevel) bool {
	return true
}
