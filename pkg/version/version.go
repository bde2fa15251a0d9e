package version

// Set by -ldflags at build time.
var (
	Version   = "v0.0.0-dev"
	GitCommit = "unknown"
)
