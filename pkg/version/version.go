// Package version holds the build identity of the oometrics binary.
package version

import (
	"fmt"
	"runtime/debug"
)

const unknown = "unknown"

// Build identity, set with -ldflags "-X" at release time.
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// InitBinaryVersion fills Commit and Date from the module build info when
// they were not set by the linker, and Version from the module version for
// `go install` builds.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String formats the build identity for `oometrics version`.
func String() string {
	return fmt.Sprintf("oometrics %s (commit: %s, built: %s)", Version, Commit, Date)
}
