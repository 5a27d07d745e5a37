//go:build arm64 && !arm64.v9.0

package prism

// staticLevel is fixed by the build's micro-architecture tags (GOAMD64,
// GOARM64). Code compiled for this level may assume its features.
const staticLevel = DispatchNEON
