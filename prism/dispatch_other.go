//go:build !amd64 && !arm64

package prism

func init() {
	// Other architectures only get the scalar tier for now.
	setLevel("")
}
