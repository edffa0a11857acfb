// Package version provides build version information for the application.
// This is a separate package to avoid import cycles between cli, api and gui.
package version

// Version is the build version string, set by ldflags during build.
var Version = "v0.4.0-dev"

// BuildTime is the build timestamp, set by ldflags during build.
var BuildTime = "unknown"

// UserAgent is sent on every request to the allocation service.
func UserAgent() string {
	return "alloc-admin/" + Version
}
