package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/keycast/
//   - Linux:   $XDG_CONFIG_HOME/keycast/ or ~/.config/keycast/
//   - Windows: %APPDATA%\keycast\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSConfigDir()
	case "windows":
		return windowsConfigDir()
	default:
		return xdgConfigDir()
	}
}

func homeDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return home
}

func macOSConfigDir() string {
	return filepath.Join(homeDir(), "Library", "Application Support", "keycast")
}

func xdgConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "keycast")
	}
	return filepath.Join(homeDir(), ".config", "keycast")
}

func windowsConfigDir() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "keycast")
	}
	return filepath.Join(homeDir(), "AppData", "Roaming", "keycast")
}

// SupportedConfigFormats returns the list of supported config file formats.
func SupportedConfigFormats() []string {
	return []string{"toml", "json", "yaml", "yml"}
}

// FindConfigFile searches the working directory, then the config
// directory, for config.<ext>. It returns "" when none exists.
func FindConfigFile() string {
	for _, dir := range []string{".", PlatformConfigDir()} {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
