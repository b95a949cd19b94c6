// Package version holds build metadata stamped in with ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/assetbuilder/internal/version.Version=v0.3.0"
package version

import "fmt"

// Version is the release of the assetbuilder binary.
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by the CLI.
func String() string {
	return fmt.Sprintf("assetbuilder %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
