package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the ccidl CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI. Config files compare their
	// requires constraint against it, so it must stay parseable.
	Version = "0.4.0"

	// GitCommit is an optional git commit hash.
	GitCommit = ""
)

// Pretty renders Version with its major, minor and patch parts colored.
// Anything after the patch number (pre-release, metadata) is left plain.
func Pretty() string {
	parts := strings.SplitN(Version, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	patch, rest := parts[2], ""
	if i := strings.IndexAny(patch, "-+"); i >= 0 {
		patch, rest = patch[:i], patch[i:]
	}
	return versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(patch) + rest
}
