// Package version provides build and product information for the Taqyon shell.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables injected via ldflags
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Product identity shown in the window title, tray tooltip and About dialog.
const (
	AppName      = "Taqyon App"
	Organization = "Taqyon"
	Description  = "Taqyon Desktop Application"
)

// String returns the product name with version, commit and build time.
func String() string {
	return fmt.Sprintf("%s %s (%s) built %s", AppName, Version, GitCommit, BuildTime)
}

// Short returns just the version number.
func Short() string {
	return Version
}

// Full returns version info with Go version.
func Full() string {
	return fmt.Sprintf("%s - Go %s %s/%s", String(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// About returns the text of the Help > About dialog.
func About() string {
	return fmt.Sprintf("%s\nVersion %s\n\nA Go desktop application template embedding a web frontend.", AppName, Version)
}

// Info contains structured version information.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns structured version information.
func GetInfo() Info {
	return Info{
		Name:      AppName,
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
