// Package buildinfo holds build-time metadata injected via -ldflags.
//
//	go build -ldflags "-X github.com/zewedjobs/zewed-jobs-go/internal/buildinfo.Version=v1.2.0 \
//	  -X github.com/zewedjobs/zewed-jobs-go/internal/buildinfo.Commit=$(git rev-parse HEAD)"
package buildinfo

import "runtime/debug"

var (
	// Version is the semantic version or tag for this build.
	Version = ""
	// Commit is the git commit SHA for this build.
	Commit = ""
	// BuildDate is the RFC3339 build timestamp.
	BuildDate = ""
)

// Info is the resolved build metadata.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// Get returns the injected values. Missing commit and date fall back to the
// VCS stamp the toolchain embeds; a missing version becomes "dev".
func Get() Info {
	info := Info{Version: Version, Commit: Commit, BuildDate: BuildDate}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildDate == "" {
					info.BuildDate = s.Value
				}
			}
		}
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}
