// Package version reports what binary is running. The variables are
// stamped with -ldflags "-X .../internal/version.Version=..." by release
// builds; go install builds fall back to the embedded VCS metadata.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Build describes the running binary.
type Build struct {
	Version string
	Commit  string
	Date    string
	Dirty   bool
}

// Current merges the stamped variables with VCS settings recorded by the
// go command. Stamped values win.
func Current() Build {
	b := Build{Version: Version, Commit: Commit, Date: Date}
	bi, ok := readBuildInfo()
	if !ok {
		return b
	}
	if b.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		b.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "unknown" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.Date == "unknown" {
				b.Date = s.Value
			}
		case "vcs.modified":
			b.Dirty = s.Value == "true"
		}
	}
	return b
}

// Info is the one-line banner printed by "sidekick version".
func Info() string {
	b := Current()
	commit := abbrev(b.Commit)
	if b.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("sidekick %s (commit: %s, built: %s, %s/%s)",
		b.Version, commit, b.Date, runtime.GOOS, runtime.GOARCH)
}

// Product is the token announced to IRC peers on CTCP VERSION.
func Product() string {
	return "Sidekick/" + Current().Version
}

func abbrev(rev string) string {
	const n = 7
	if len(rev) <= n {
		return rev
	}
	return rev[:n]
}
