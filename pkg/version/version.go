package version

// Set at build time with -ldflags "-X".
var (
	Version   = "v0.0.0"
	GitCommit = "unknown"
)

// String returns the version and commit, e.g. "v1.2.0 (abc1234)".
func String() string {
	return Version + " (" + GitCommit + ")"
}
