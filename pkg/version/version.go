// Package version holds the build version of treegrid.
package version

// Version is overridden at build time with
// -ldflags "-X github.com/vanderheijden86/treegrid/pkg/version.Version=v1.2.3".
var Version = "dev"
