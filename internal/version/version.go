package version

import "runtime/debug"

// Version is set at build time via:
//
//	-ldflags "-X github.com/yegor-usoltsev/chownmap/internal/version.Version=v1.2.3"
//
// When not set, the module version from the build info is used, or "dev".
var Version = "dev" //nolint:gochecknoglobals

// String returns the version reported by --version.
func String() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
