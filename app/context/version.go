package context

import "runtime/debug"

// GetVersion returns the application version embedded in the build info, or
// "devel" for local builds.
func GetVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "devel"
	}

	return info.Main.Version
}
