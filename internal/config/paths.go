package config

import (
	"os"
	"path/filepath"
	"strings"
)

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/changelog2html/config.yml
// - macOS: ~/Library/Application Support/changelog2html/config.yml
// - Windows: %APPDATA%\changelog2html\config.yml
//
// If XDG_CONFIG_HOME is set, it will be respected on Linux.
func UserConfigPath() (string, error) {
	configDir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yml"), nil
}

// UserConfigDir returns the path to the user-level config directory.
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "changelog2html"), nil
}

// ProjectConfigPath returns the path to the project-level config file.
// This is always .changelog2html.yml relative to the current directory.
func ProjectConfigPath() string {
	return ".changelog2html.yml"
}

// LegacyProjectConfigPath returns the path to the legacy project-level JSON config file.
func LegacyProjectConfigPath() string {
	return legacyPathFor(ProjectConfigPath())
}

// legacyPathFor swaps a .yml/.yaml extension for .json.
func legacyPathFor(yamlPath string) string {
	ext := filepath.Ext(yamlPath)
	if ext == ".yml" || ext == ".yaml" {
		return strings.TrimSuffix(yamlPath, ext) + ".json"
	}
	return yamlPath + ".json"
}
