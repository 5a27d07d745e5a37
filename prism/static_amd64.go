//go:build amd64 && !amd64.v3

package prism

// staticLevel is fixed by the build's micro-architecture tags (GOAMD64,
// GOARM64). Code compiled for this level may assume its features.
const staticLevel = DispatchSSE2
