// Package version holds build information for readcommand.
// Values are injected at build time with -ldflags "-X readcommand/internal/version.Version=...".
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	// Version is the semantic version of the binary.
	Version = "0.1.0"

	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"

	// BuildDate is when the binary was built.
	BuildDate = "unknown"
)

// Info is the version information reported by the version command.
type Info struct {
	Version    string `json:"version" yaml:"version"`
	GitCommit  string `json:"gitCommit" yaml:"gitCommit"`
	BuildDate  string `json:"buildDate" yaml:"buildDate"`
	GoVersion  string `json:"goVersion" yaml:"goVersion"`
	Platform   string `json:"platform" yaml:"platform"`
	Prerelease bool   `json:"prerelease" yaml:"prerelease"`
	// Development is set when the commit or build date was not injected.
	Development bool            `json:"development" yaml:"development"`
	SemVer      *semver.Version `json:"-" yaml:"-"`
}

// GetInfo returns the build information, failing if Version is not valid semver.
func GetInfo() (*Info, error) {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}

	return &Info{
		Version:     Version,
		GitCommit:   GitCommit,
		BuildDate:   BuildDate,
		GoVersion:   runtime.Version(),
		Platform:    fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		Prerelease:  sv.Prerelease() != "",
		Development: !known(GitCommit) || !known(BuildDate),
		SemVer:      sv,
	}, nil
}

// GetFormattedVersion returns a one-line description such as
// "readcommand v0.1.0, commit abc1234, built 2024-05-01".
func GetFormattedVersion() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("readcommand v%s (invalid version)", Version)
	}

	parts := []string{fmt.Sprintf("readcommand v%s", info.Version)}

	if known(info.GitCommit) {
		shortCommit := info.GitCommit
		if len(shortCommit) > 7 {
			shortCommit = shortCommit[:7]
		}
		parts = append(parts, fmt.Sprintf("commit %s", shortCommit))
	}
	if known(info.BuildDate) {
		parts = append(parts, fmt.Sprintf("built %s", info.BuildDate))
	}

	formatted := strings.Join(parts, ", ")
	if info.Development {
		formatted += " (development build)"
	}
	return formatted
}

// SetBuildInfo overrides the build information. Used by tests.
func SetBuildInfo(version, gitCommit, buildDate string) {
	Version = version
	GitCommit = gitCommit
	BuildDate = buildDate
}

func known(value string) bool {
	return value != "" && value != "unknown"
}
