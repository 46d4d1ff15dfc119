// Package version exposes the build version of the estore CLI.
package version

// Version is the semantic version of the CLI, overridden at build time
// via -ldflags "-X github.com/estoreapp/estore-cli/pkg/version.Version=...".
//
//nolint:gochecknoglobals // Set by the linker.
var Version = "0.1.0-dev"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
