package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Modified  bool   `json:"modified"`
	Release   bool   `json:"release"`
}

// Get returns the build information, filling commit and build time from the
// embedded VCS stamp when they were not set at link time.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		Release:   Version != "dev" && !strings.Contains(Version, "dirty"),
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	if len(info.Commit) > 7 {
		info.Commit = info.Commit[:7]
	}
	return info
}

// String is the one-line form printed by "asrkit version".
func (i Info) String() string {
	var b strings.Builder
	b.WriteString("asrkit " + i.Version)
	if i.Commit != "" {
		b.WriteString(" (" + i.Commit)
		if i.Modified {
			b.WriteString("-dirty")
		}
		b.WriteString(")")
	}
	if i.BuildTime != "" {
		fmt.Fprintf(&b, " built %s", i.BuildTime)
	}
	if i.GoVersion != "" {
		fmt.Fprintf(&b, " %s", i.GoVersion)
	}
	return b.String()
}

// Short returns the version with the commit appended.
func Short() string {
	i := Get()
	if i.Commit == "" {
		return i.Version
	}
	if i.Modified {
		return fmt.Sprintf("%s-%s-dirty", i.Version, i.Commit)
	}
	return fmt.Sprintf("%s-%s", i.Version, i.Commit)
}
