package utils

import "runtime/debug"

// Set with -ldflags "-X rfid-access-console/internal/utils.BuildVersion=..."
var BuildVersion = ""

func GetVersion() string {
	if BuildVersion != "" {
		return BuildVersion
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "(unknown)"
	}

	// Check if dirty
	for _, setting := range info.Settings {
		if setting.Key == "vcs.modified" && setting.Value == "true" {
			return info.Main.Version + "-dirty"
		}
	}

	return info.Main.Version
}
