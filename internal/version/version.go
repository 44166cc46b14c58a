package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// UserAgent is sent with every API request.
func UserAgent() string {
	return fmt.Sprintf("docai/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
