// Package version carries build metadata injected with -ldflags, e.g.
//
//	-X github.com/MeKo-Tech/langid/internal/version.Version=v1.2.0
package version

import "fmt"

// Build-time variables set by ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version information
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}

// String formats the build metadata for --version output.
func String() string {
	return fmt.Sprintf("langid %s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
}
