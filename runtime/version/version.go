// Package version provides version information for the codegen client.
// Version variables can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/AltairaLabs/codestream/runtime/version.version=1.0.0"
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	// devVersion is the default version when not set via ldflags
	devVersion = "dev"
	// shortCommitLen is the length of the short commit hash
	shortCommitLen = 7
	// vcsRevisionKey is the build info key for git commit
	vcsRevisionKey = "vcs.revision"
	// vcsModifiedKey is the build info key for dirty state
	vcsModifiedKey = "vcs.modified"
	// agentName prefixes the client agent string sent with each request.
	agentName = "codestream"
)

// Build-time variables - can be overridden with -ldflags
var (
	version   = devVersion
	gitCommit = ""
	buildDate = ""
)

// GetVersion returns the current version string.
// Falls back to build info from go modules if version is "dev".
func GetVersion() string {
	if version != devVersion {
		return version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}

	return devVersion
}

// SemanticVersion returns the version normalized to MAJOR.MINOR.PATCH form
// (with any pre-release suffix), or "0.0.0-dev" when the version is not
// valid semver.
func SemanticVersion() string {
	v, err := semver.NewVersion(GetVersion())
	if err != nil {
		return "0.0.0-" + devVersion
	}
	return v.String()
}

// ClientAgent returns the client agent string attached to outbound requests,
// e.g. "codestream/1.2.0 (linux; amd64)".
func ClientAgent() string {
	return fmt.Sprintf("%s/%s (%s; %s)", agentName, SemanticVersion(), runtime.GOOS, runtime.GOARCH)
}

func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

// commit returns the ldflags commit, or the short VCS revision from build info.
func commit() string {
	if gitCommit != "" {
		return gitCommit
	}
	rev := buildSetting(vcsRevisionKey)
	return rev[:min(shortCommitLen, len(rev))]
}

// GetVersionInfo returns detailed version information for the version command.
func GetVersionInfo() string {
	var b strings.Builder

	fmt.Fprintf(&b, "codegen version %s", GetVersion())

	if c := commit(); c != "" {
		fmt.Fprintf(&b, "\ncommit: %s", c)
	}

	if buildDate != "" {
		fmt.Fprintf(&b, "\nbuilt: %s", buildDate)
	}

	fmt.Fprintf(&b, "\nagent: %s", ClientAgent())

	return b.String()
}

// GetBuildInfo returns version details as structured slog attributes.
func GetBuildInfo() []any {
	attrs := []any{
		"version", GetVersion(),
	}

	if c := commit(); c != "" {
		attrs = append(attrs, "commit", c)
	}

	if gitCommit == "" && buildSetting(vcsModifiedKey) == "true" {
		attrs = append(attrs, "dirty", true)
	}

	if buildDate != "" {
		attrs = append(attrs, "built", buildDate)
	}

	return attrs
}
