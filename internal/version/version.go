// Package version exposes the build version stamped into artifacts.
package version

// Version is overridden at build time via -ldflags.
var Version = "dev"
