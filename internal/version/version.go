// Package version carries build metadata injected with -ldflags.
package version

import "fmt"

var (
	Version   = "0.1.0"
	BuildTime = "development"
	GitCommit = "unknown"
)

// String returns the version as printed by --version.
func String() string {
	if GitCommit != "unknown" && len(GitCommit) >= 7 {
		return fmt.Sprintf("v%s (%s)", Version, GitCommit[:7])
	}
	return fmt.Sprintf("v%s", Version)
}

func Get() map[string]string {
	return map[string]string{
		"version":   Version,
		"buildTime": BuildTime,
		"gitCommit": GitCommit,
	}
}
