// Package version exposes the build's version identity. Stations
// advertise it in their mDNS TXT records and the binaries print it
// for -version.
package version

var (
	// Version is the release version. Binaries may override it at link
	// time: -ldflags "-X github.com/latch-protocol/latch-go/pkg/version.Version=v1.2.0".
	Version string

	// GitCommit is the source revision the binary was built from.
	GitCommit string
)

// String returns the version, or "dev" for unstamped builds.
func String() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// Full returns the version with the short commit appended when known.
func Full() string {
	s := String()
	if GitCommit == "" {
		return s
	}
	commit := GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return s + " (" + commit + ")"
}
