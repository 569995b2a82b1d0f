// Package version reports the build version of the Minnal extension.
//
// The values are injected at link time:
//
//	go build -ldflags "-X github.com/oszuidwest/minnal/internal/version.Version=0.4.0 \
//	  -X github.com/oszuidwest/minnal/internal/version.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/oszuidwest/minnal/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import (
	"fmt"
	"runtime"
)

// Version is the build version string, set at build time via ldflags.
// It defaults to "dev" for development builds.
var Version = "dev"

// Commit is the git commit hash, set at build time via ldflags.
// It defaults to "unknown" when not built from version control.
var Commit = "unknown"

// BuildTime is the build timestamp, set at build time via ldflags.
// It defaults to "unknown" when build time is not captured.
var BuildTime = "unknown"

const fallback = "dev"

// Get returns the extension version exactly as it was injected at build time.
// The string is opaque; it is never parsed or compared by ordering.
func Get() string {
	// An empty -X value is a broken build, not a runtime condition.
	if Version == "" {
		return fallback
	}
	return Version
}

// Info contains the version and build metadata of the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// GetInfo returns all version information as a struct.
func GetInfo() Info {
	return Info{
		Version:   Get(),
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String returns a one-line banner for CLI output and logs.
func String() string {
	return fmt.Sprintf("Minnal %s (%s, gebouwd %s)", Get(), Commit, BuildTime)
}
