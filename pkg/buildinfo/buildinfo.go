// Package buildinfo reports the version of the axiom-profiler binary.
//
// Release builds set the variables through ldflags:
//
//	go build -ldflags "-X github.com/kiranandcode/axiom-profiler-2/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/kiranandcode/axiom-profiler-2/pkg/buildinfo.Commit=$(git rev-parse HEAD)" \
//	    ./cmd/axiom-profiler
//
// Builds without ldflags fall back to the VCS stamp the Go toolchain embeds.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	// Version is the semantic version, e.g. "v0.3.0".
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

var fillOnce sync.Once

// fill copies the embedded VCS settings into any variable left at its default.
func fill() {
	fillOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if Commit == "none" {
					Commit = s.Value
				}
			case "vcs.time":
				if Date == "unknown" {
					Date = s.Value
				}
			}
		}
	})
}

// String returns the formatted build information.
func String() string {
	fill()
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the version template for cobra.
func Template() string {
	fill()
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// UserAgent identifies the server in response headers.
func UserAgent() string {
	fill()
	return "axiom-profiler/" + Version
}
