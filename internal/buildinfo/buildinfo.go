// Package buildinfo exposes the version metadata stamped into coachd
// at build time.
package buildinfo

import (
	"fmt"
	"runtime"
	"time"
)

// Set via -ldflags on release builds; defaults identify a dev binary.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var startTime = time.Now()

// Uptime reports time since process start, truncated to whole seconds.
func Uptime() time.Duration {
	return time.Since(startTime).Truncate(time.Second)
}

// String is the one-line banner printed by -version and logged at boot.
func String() string {
	return fmt.Sprintf("coachd %s (commit %s, %s) built %s",
		Version, GitCommit, runtime.Version(), BuildTime)
}
