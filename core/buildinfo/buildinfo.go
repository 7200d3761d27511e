// Package buildinfo holds the values stamped in at link time:
//
//	go build -ldflags "-X github.com/m3rciful/voicequotes/core/buildinfo.Version=v0.3.0 \
//	  -X github.com/m3rciful/voicequotes/core/buildinfo.Commit=abcdef0 \
//	  -X github.com/m3rciful/voicequotes/core/buildinfo.Date=2026-10-01T12:00:00Z"
//
// Unstamped builds fall back to the VCS data recorded by the go tool.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "local"
	Date    = ""
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	fillFromVCS(info.Settings)
}

func fillFromVCS(settings []debug.BuildSetting) {
	for _, s := range settings {
		switch {
		case s.Key == "vcs.revision" && Commit == "local" && len(s.Value) >= 7:
			Commit = s.Value[:7]
		case s.Key == "vcs.time" && Date == "":
			Date = s.Value
		}
	}
}

// String renders the build as "v0.3.0 (abcdef0, 2026-10-01T12:00:00Z)".
func String() string {
	date := Date
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, date)
}
