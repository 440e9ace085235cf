// Package version exposes the build version injected at link time.
package version

// version is overridden via -ldflags at build time.
var version = "v0.0.0"

// Value returns the version string baked into the binary.
func Value() string {
	return version
}
