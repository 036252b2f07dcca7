// Package version holds the codegraph release version.
package version

// Version is overridable at build time:
//
//	go build -ldflags "-X github.com/standardbeagle/codegraph/internal/version.Version=v0.2.0"
var Version = "0.1.0"
