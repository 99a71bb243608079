// FILE: lixenwraith/settings/discovery.go
package settings

import (
	"os"
	"path/filepath"
	"strings"
)

// ConfigFileCandidates returns the ordered candidate configuration files for
// Parse: the system-wide file followed by the user-specific file, so
// user-level keys override system-level ones. An explicit path in the
// <APPNAME>_CONFIG environment variable short-circuits discovery.
// Non-existent candidates are harmless; Parse skips them.
func ConfigFileCandidates(appName string) []string {
	if explicit := os.Getenv(strings.ToUpper(appName) + "_CONFIG"); explicit != "" {
		return []string{explicit}
	}

	candidates := []string{
		filepath.Join("/etc", appName, appName+".conf"),
	}
	if userDir := userConfigDir(appName); userDir != "" {
		candidates = append(candidates, filepath.Join(userDir, appName+".conf"))
	}
	return candidates
}

// userConfigDir resolves the XDG config directory for the application.
func userConfigDir(appName string) string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", appName)
	}
	return ""
}
