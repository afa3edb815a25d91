// Package buildinfo reports the version stamped into the binary.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/SonghaiFan/metroflow/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/SonghaiFan/metroflow/pkg/buildinfo.Commit=$(git rev-parse --short HEAD)" \
//	    ./cmd/metroflow
//
// Development builds fall back to the module version and VCS revision that
// the Go toolchain records in the binary.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build information of the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// Get returns the build information, filling unset ldflags values from the
// embedded module metadata.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "none" && len(s.Value) >= 7 {
				info.Commit = s.Value[:7]
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		}
	}
	return info
}

// String returns the build information as "key: value" lines.
func String() string {
	i := Get()
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s\ngo: %s", i.Version, i.Commit, i.Date, i.GoVersion)
}

// Template returns the version template for cobra.
func Template() string {
	i := Get()
	return fmt.Sprintf("{{.Name}} %s (%s, %s)\n", i.Version, i.Commit, i.Date)
}
