// Package version exposes build information set through ldflags.
package version

import (
	"fmt"
	"runtime"

	"github.com/teranos/ziwei/rules"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "dev"
)

// Info contains version and build information
type Info struct {
	CommitHash     string `json:"commit_hash" yaml:"commit_hash"`
	BuildTime      string `json:"build_time" yaml:"build_time"`
	Version        string `json:"version" yaml:"version"`
	GrammarVersion string `json:"grammar_version" yaml:"grammar_version"`
	GoVersion      string `json:"go_version" yaml:"go_version"`
	Platform       string `json:"platform" yaml:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash:     CommitHash,
		BuildTime:      BuildTime,
		Version:        Version,
		GrammarVersion: rules.GrammarVersion,
		GoVersion:      runtime.Version(),
		Platform:       fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string
func (i Info) String() string {
	if i.Version != "dev" {
		return fmt.Sprintf("ziwei %s (commit %s, built %s, grammar %s)", i.Version, i.CommitHash, i.BuildTime, i.GrammarVersion)
	}
	return fmt.Sprintf("ziwei dev (commit %s, built %s, grammar %s)", i.CommitHash, i.BuildTime, i.GrammarVersion)
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
