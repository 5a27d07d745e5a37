//go:build arm64

package prism

import (
	"os"
	"strings"

	"golang.org/x/sys/cpu"
)

func init() {
	setLevel(detectFeatures())
}

// detectFeatures renders the AArch64 flags the tier table cares about.
// ASIMD is part of the ARMv8-A base architecture, so NEON is always present;
// SVE and SVE2 can be masked with PRISM_NO_SVE.
func detectFeatures() string {
	flags := []string{"asimd"}
	if os.Getenv("PRISM_NO_SVE") != "" {
		return strings.Join(flags, " ")
	}
	if cpu.ARM64.HasSVE {
		flags = append(flags, "sve")
	}
	if cpu.ARM64.HasSVE2 {
		flags = append(flags, "sve2")
	}
	return strings.Join(flags, " ")
}
