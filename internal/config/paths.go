package config

import (
	"os"
	"path/filepath"
)

// Project config file names, in order of preference.
const (
	ProjectConfigYAML = ".taglog.yml"
	ProjectConfigJSON = ".taglog.json"
)

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/taglog/config.yml
// - macOS: ~/Library/Application Support/taglog/config.yml
// - Windows: %APPDATA%\taglog\config.yml
//
// If XDG_CONFIG_HOME is set, it will be respected on Linux.
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "taglog", "config.yml"), nil
}

// ProjectConfigPaths returns the YAML and JSON project config paths in dir.
// An empty dir means the current directory.
func ProjectConfigPaths(dir string) (yamlPath, jsonPath string) {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, ProjectConfigYAML), filepath.Join(dir, ProjectConfigJSON)
}
