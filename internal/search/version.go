package search

// Build metadata, set with -ldflags "-X neutrino/internal/search.Version=...".
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
