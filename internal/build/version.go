package build

// Set at link time, e.g.
//
//	go build -ldflags "-X github.com/rohmanhakim/filehash-cache/internal/build.Version=1.0.0 -X github.com/rohmanhakim/filehash-cache/internal/build.Commit=$(git rev-parse --short HEAD)"
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion returns the version string with commit hash appended.
// Format: "Version+Commit" (e.g., "1.0.0+abc123")
func FullVersion() string {
	return Version + "+" + Commit
}
