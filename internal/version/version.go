package version

// Version is the current version of duet.
// This value can be overridden at build time using:
//
//	go build -ldflags="-X 'github.com/duet-rtc/duet/internal/version.Version=v1.0.0'"
var Version = "dev"
