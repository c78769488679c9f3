// Package version exposes the build version of retaildw.
package version

// Version is set at build time via -ldflags "-X retaildw/internal/version.Version=...".
var Version = "dev"
