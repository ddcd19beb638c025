package version

import (
	"fmt"
	"runtime"
)

// Service is the canonical name this backend reports about itself.
const Service = "casacolor-backend-go"

// Build metadata, overridable via ldflags.
var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"

	// GitCommit is the commit hash the binary was built from.
	GitCommit = "unknown"

	// BuildDate is when the binary was built.
	BuildDate = "unknown"

	// GoVersion is the Go toolchain the binary was compiled with.
	GoVersion = runtime.Version()
)

// BuildInfo bundles the build metadata for the health endpoint.
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// GetVersion returns the version string, qualified with the commit hash for
// dev builds.
func GetVersion() string {
	if Version == "dev" {
		if len(GitCommit) >= 8 {
			return fmt.Sprintf("dev-%s", GitCommit[:8])
		} else if len(GitCommit) > 0 {
			return fmt.Sprintf("dev-%s", GitCommit)
		}
		return "dev-unknown"
	}
	return Version
}

// GetFullVersion returns a single human-readable build description.
func GetFullVersion() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, go: %s)",
		Service, GetVersion(), GitCommit, BuildDate, GoVersion)
}

// GetBuildInfo returns all build metadata.
func GetBuildInfo() *BuildInfo {
	return &BuildInfo{
		Service:   Service,
		Version:   GetVersion(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: GoVersion,
	}
}

// IsDevBuild reports whether this is a local development build.
func IsDevBuild() bool {
	return Version == "dev"
}
