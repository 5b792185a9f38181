// Package version exposes the ncc release identifiers stamped in at link time.
package version

import "runtime/debug"

// Set with -ldflags "-X github.com/carverauto/ncc/pkg/version.version=..."
//
//nolint:gochecknoglobals // These are intentionally global for ldflags injection
var (
	version = "dev"
	buildID = "dev"
)

// GetVersion returns the release version, falling back to the module
// version recorded by `go install` when no ldflags were supplied.
func GetVersion() string {
	if version != "dev" {
		return version
	}

	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return version
}

// GetBuildID returns the current build ID
func GetBuildID() string {
	return buildID
}

// GetFullVersion returns version with build ID
func GetFullVersion() string {
	return GetVersion() + " (build: " + buildID + ")"
}
