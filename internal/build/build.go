// Package build holds version information injected at link time.
package build

var (
	// Version is set with -ldflags "-X github.com/NivBraz/greeting-service/internal/build.Version=...".
	Version = "dev"
	Commit  = "none"
)
