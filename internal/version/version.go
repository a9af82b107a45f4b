package version

import (
	"github.com/charmbracelet/x/ansi"
	"github.com/fatih/color"
)

// Version information for the dxfaudit CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = versionMajorColor.Sprint("0") + "." + versionMinorColor.Sprint("3") + "." + versionPatchColor.Sprint("0")

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Plain returns Version without terminal escape sequences.
func Plain() string {
	return ansi.Strip(Version)
}
