// Package version holds build information injected with -ldflags.
package version

import "fmt"

// Set at build time:
//
//	go build -ldflags "-X samplegate/internal/version.Version=v1.0.0 -X samplegate/internal/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns a one-line description of the build.
func Info() string {
	return fmt.Sprintf("samplegate %s (commit %s, built %s)", Version, Commit, Date)
}
