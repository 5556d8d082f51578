// Package version reports the build version of the binder.
// Release builds set it with ldflags:
//
//	go build -ldflags "-X github.com/ramonehamilton/mtg-binder/internal/version.Version=v0.3.0"
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the release version, "dev" for local builds.
var Version = "dev"

// Commit is the VCS revision, filled from build info when not set by ldflags.
var Commit = ""

// GetVersion returns the current application version.
func GetVersion() string {
	return Version
}

// String returns the version line printed by the CLI.
func String() string {
	commit := Commit
	if commit == "" {
		commit = buildRevision()
	}
	if commit == "" {
		return fmt.Sprintf("mtg-binder %s (%s)", Version, runtime.Version())
	}
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return fmt.Sprintf("mtg-binder %s %s (%s)", Version, commit, runtime.Version())
}

func buildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
