// Package version reports build information.
//
// Values are set at build time, e.g.
//
//	go build -ldflags "-X github.com/information-sharing-networks/oms-authenticator/internal/version.version=v1.2.0 \
//	  -X github.com/information-sharing-networks/oms-authenticator/internal/version.gitCommit=$(git rev-parse --short HEAD) \
//	  -X github.com/information-sharing-networks/oms-authenticator/internal/version.buildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// When they are not set, the module version and VCS details recorded by the Go
// toolchain are used.
package version

import (
	"runtime/debug"
)

var (
	version   = ""
	gitCommit = ""
	buildDate = ""
)

// Info is the build information of the running binary.
type Info struct {
	Version   string `json:"version" example:"v1.2.0"`
	GitCommit string `json:"gitCommit" example:"3f2c1ab"`
	BuildDate string `json:"buildDate" example:"2026-01-28T10:00:00Z"`
}

// Get returns the build information.
func Get() Info {
	info := Info{Version: version, GitCommit: gitCommit, BuildDate: buildDate}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = s.Value
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
	if info.GitCommit == "" {
		info.GitCommit = "unknown"
	}
	if info.BuildDate == "" {
		info.BuildDate = "unknown"
	}
	return info
}
