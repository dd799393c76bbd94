package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/ut181a/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/ut181a/internal/version.Commit=abc123"
//
// Unset values are filled from the module's VCS stamp, or "dev"/"unknown".
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the short git commit hash
	Commit = ""
)

// shortHashLen is the length of an abbreviated commit hash
const shortHashLen = 7

func init() {
	if Version == "" || Commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			applyBuildSettings(info.Settings)
		}
	}

	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// applyBuildSettings fills Version and Commit from vcs.* build settings
func applyBuildSettings(settings []debug.BuildSetting) {
	var revision, modified, stamp string
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		case "vcs.time":
			stamp = s.Value
		}
	}

	if Commit == "" && revision != "" {
		Commit = shortHash(revision)
		if modified == "true" {
			Commit += "-dirty"
		}
	}

	if Version == "" && stamp != "" {
		if t, err := time.Parse(time.RFC3339, stamp); err == nil {
			Version = "dev-" + t.UTC().Format("20060102")
		}
	}
}

func shortHash(rev string) string {
	if len(rev) > shortHashLen {
		return rev[:shortHashLen]
	}
	return rev
}

// Full returns the version with its commit, e.g. "v0.3.0 (commit: abc1234)"
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Platform returns the Go toolchain and target, e.g. "go1.24.0 linux/amd64"
func Platform() string {
	return fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
