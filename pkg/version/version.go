// Package version exposes build-time version metadata for the icepack binary.
package version

// Set at build time via -ldflags "-X github.com/icepack-dev/icepack/pkg/version.Version=...".
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "unknown"

	// Date is the build timestamp in RFC 3339 form.
	Date = "unknown"
)
