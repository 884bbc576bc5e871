// Package config provides hierarchical configuration management for taglog using koanf.
// Configuration is loaded with priority: environment variables (TAGLOG_*) > project config
// (.taglog.yml or .taglog.json) > user config (~/.config/taglog/config.yml) > defaults.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables that override config keys.
const EnvPrefix = "TAGLOG_"

// Merge detection strategies.
const (
	// MergeBySubject drops commits whose subject starts with "Merge".
	MergeBySubject = "subject"
	// MergeByParents drops commits with more than one parent.
	MergeByParents = "parents"
)

// Configuration represents the taglog CLI tool configuration
type Configuration struct {
	// RepoPath is the repository whose history is read. May be a clone URL
	// when AllowBareCloneFallback is set.
	RepoPath string `koanf:"repo_path" yaml:"repo_path" validate:"required"`
	// OutputFile is the changelog file written by 'taglog changelog'.
	OutputFile string `koanf:"output_file" yaml:"output_file" validate:"required"`
	// Backend selects the history provider: gitcli | native.
	Backend string `koanf:"backend" yaml:"backend" validate:"oneof=gitcli native"`
	// GitBinary is the executable used by the gitcli backend.
	GitBinary string `koanf:"git_binary" yaml:"git_binary" validate:"required"`
	// DropSelfVersionLine removes a release's own version-bump line from its body.
	DropSelfVersionLine bool `koanf:"drop_self_version_line" yaml:"drop_self_version_line"`
	// AllowBareCloneFallback clones RepoPath into a temporary bare repository
	// when it cannot be opened in place.
	AllowBareCloneFallback bool `koanf:"allow_bare_clone_fallback" yaml:"allow_bare_clone_fallback"`
	// MergeDetection chooses how merge commits are recognized: subject | parents.
	MergeDetection string `koanf:"merge_detection" yaml:"merge_detection" validate:"oneof=subject parents"`
	// ManifestPath is the directory holding package.json (and bower.json).
	ManifestPath string `koanf:"manifest_path" yaml:"manifest_path" validate:"required"`
	// WatchDebounce is how long 'taglog watch' waits for refs to settle.
	WatchDebounce time.Duration `koanf:"watch_debounce" yaml:"watch_debounce" validate:"gte=0"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ConfigFile is an explicit config file that replaces project config
	// discovery. The parser is chosen by extension.
	ConfigFile string
	// ProjectDir is searched for .taglog.yml and .taglog.json (default: ".").
	ProjectDir string
	// WarningWriter receives warnings about ignored files (default: os.Stderr)
	WarningWriter io.Writer
	// SkipWarnings suppresses warnings
	SkipWarnings bool
}

// Load loads configuration from user, project, and environment sources.
// Priority: Environment variables > Project config > User config > Defaults
func Load(projectDir string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectDir: projectDir})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warningWriter := getWarningWriter(opts.WarningWriter)

	loadDefaults(k)

	if err := loadUserConfig(k); err != nil {
		return nil, err
	}

	if opts.ConfigFile != "" {
		if err := loadExplicitConfig(k, opts.ConfigFile); err != nil {
			return nil, err
		}
	} else if err := loadProjectConfig(k, opts.ProjectDir, warningWriter, opts.SkipWarnings); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	return finalizeConfig(k)
}

// getWarningWriter returns the warning writer or defaults to stderr
func getWarningWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// loadUserConfig loads ~/.config/taglog/config.yml when it exists.
func loadUserConfig(k *koanf.Koanf) error {
	userPath, err := UserConfigPath()
	if err != nil || !fileExists(userPath) {
		return nil
	}
	if err := loadYAMLConfig(k, userPath, "user"); err != nil {
		return fmt.Errorf("loading user config: %w", err)
	}
	return nil
}

// loadProjectConfig loads .taglog.yml, falling back to .taglog.json.
// When both exist the YAML file wins and a warning names the ignored file.
func loadProjectConfig(k *koanf.Koanf, dir string, warningWriter io.Writer, skipWarnings bool) error {
	yamlPath, jsonPath := ProjectConfigPaths(dir)
	yamlExists := fileExists(yamlPath)
	jsonExists := fileExists(jsonPath)

	switch {
	case yamlExists:
		if err := loadYAMLConfig(k, yamlPath, "project"); err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		if jsonExists && !skipWarnings {
			fmt.Fprintf(warningWriter, "Warning: %s ignored, using %s\n\n", jsonPath, yamlPath)
		}
	case jsonExists:
		if err := loadJSONConfig(k, jsonPath, "project"); err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
	}
	return nil
}

// loadExplicitConfig loads the file named by --config. Unlike discovered
// files, it must exist.
func loadExplicitConfig(k *koanf.Koanf, path string) error {
	if !fileExists(path) {
		return fmt.Errorf("config file not found: %s", path)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return loadJSONConfig(k, path, "explicit")
	}
	return loadYAMLConfig(k, path, "explicit")
}

// loadYAMLConfig validates and loads a YAML config file
func loadYAMLConfig(k *koanf.Koanf, path, configType string) error {
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

// loadJSONConfig loads a JSON config file
func loadJSONConfig(k *koanf.Koanf, path, configType string) error {
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals, validates, and applies final transformations
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.RepoPath = expandHomePath(cfg.RepoPath)
	cfg.ManifestPath = expandHomePath(cfg.ManifestPath)

	return &cfg, nil
}

// SkipMergeCommits reports whether merges are detected structurally by the
// history provider instead of by subject.
func (c *Configuration) SkipMergeCommits() bool {
	return c.MergeDetection == MergeByParents
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys
// Example: TAGLOG_OUTPUT_FILE -> output_file
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
