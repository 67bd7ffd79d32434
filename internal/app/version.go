package app

import (
	"log/slog"
	"runtime/debug"
)

// Set by release builds, e.g.
// -ldflags "-X github.com/tejashwikalptaru/govis/internal/app.Version=v0.3.0".
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	Built     string
	GoVersion string
	Modified  bool
}

// CurrentBuild returns the ldflags values, completed from the VCS stamp the
// toolchain embeds when they were not set.
func CurrentBuild() BuildInfo {
	info, _ := debug.ReadBuildInfo()
	return buildFrom(info)
}

func buildFrom(info *debug.BuildInfo) BuildInfo {
	b := BuildInfo{Version: Version, Commit: GitCommit, Built: BuildTime}
	if info == nil {
		return b
	}
	b.GoVersion = info.GoVersion
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.Built == "" {
				b.Built = s.Value
			}
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}

// String is the short form printed by --version: the version, then the
// abbreviated commit when known.
func (b BuildInfo) String() string {
	out := b.Version
	if b.Commit != "" {
		commit := b.Commit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		out += " (" + commit
		if b.Modified {
			out += ", modified"
		}
		out += ")"
	}
	return out
}

// Attr groups the build details for the startup log line.
func (b BuildInfo) Attr() slog.Attr {
	return slog.Group("build",
		slog.String("version", b.Version),
		slog.String("commit", b.Commit),
		slog.String("built", b.Built),
		slog.String("go", b.GoVersion),
		slog.Bool("modified", b.Modified),
	)
}
