// Package version provides the default client version sent in extended handshakes.
package version

import (
	"fmt"
	"runtime/debug"
)

const (
	modulePath = "github.com/anacrolix/ltep"
	shortName  = "anacrolix/ltep"
)

// The "v" in our extended handshakes. Names the main module and the version of this module it was
// built with, from the build info.
var DefaultExtendedHandshakeClientVersion = clientVersion()

func clientVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return shortName
	}
	ltepVersion := "unknown"
	for _, dep := range append(info.Deps, &info.Main) {
		if dep.Path == modulePath {
			ltepVersion = dep.Version
		}
	}
	if info.Main.Path == modulePath || info.Main.Path == "" {
		return fmt.Sprintf("%s %s", shortName, ltepVersion)
	}
	return fmt.Sprintf("%s %s (%s %s)", info.Main.Path, info.Main.Version, shortName, ltepVersion)
}
