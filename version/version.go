package version

import "fmt"

// these values are set via ldflags during build
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var FullVersion = fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
