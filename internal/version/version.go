// Package version holds the version of the tools.
package version

// Version is set at build time:
//
//	go build -ldflags "-X github.com/ultraschall/podcast-tools/internal/version.Version=5.1.0"
var Version = "5.0.0"

// UserAgent returns the User-Agent sent with HTTP requests.
func UserAgent() string {
	return "Ultraschall/" + Version
}
