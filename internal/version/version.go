// Package version carries build metadata for the aggsynth CLI. The
// variables are overridden at build time via -ldflags.
package version

import (
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Info is the JSON shape of `aggsynth version --format json`.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// Current returns the build metadata.
func Current() Info {
	return Info{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate}
}

// Colored renders Version with each numeric part in its own color. Any
// pre-release suffix stays uncolored. color.NoColor disables the escapes.
func Colored() string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	out := majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}
