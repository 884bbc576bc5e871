package config

import (
	"fmt"
	"sort"
	"strings"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeDuration
	TypeString
	TypeEnum
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeDuration:
		return "duration"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// ConfigKeySchema describes a configuration key for 'taglog config keys'.
type ConfigKeySchema struct {
	Path          string          // Key name (e.g., "output_file")
	Type          ConfigValueType // Expected value type
	AllowedValues []string        // Valid values for enum types (empty for non-enums)
	Description   string          // Human-readable description for help text
}

// KnownKeys is the registry of all configuration keys.
var KnownKeys = map[string]ConfigKeySchema{
	"repo_path": {
		Path:        "repo_path",
		Type:        TypeString,
		Description: "Repository to read history from",
	},
	"output_file": {
		Path:        "output_file",
		Type:        TypeString,
		Description: "Changelog file written by 'taglog changelog'",
	},
	"backend": {
		Path:          "backend",
		Type:          TypeEnum,
		AllowedValues: []string{"gitcli", "native"},
		Description:   "History backend",
	},
	"git_binary": {
		Path:        "git_binary",
		Type:        TypeString,
		Description: "Git executable used by the gitcli backend",
	},
	"drop_self_version_line": {
		Path:        "drop_self_version_line",
		Type:        TypeBool,
		Description: "Drop a release's own version-bump line from its body",
	},
	"allow_bare_clone_fallback": {
		Path:        "allow_bare_clone_fallback",
		Type:        TypeBool,
		Description: "Clone repo_path into a temporary bare repository when it cannot be opened",
	},
	"merge_detection": {
		Path:          "merge_detection",
		Type:          TypeEnum,
		AllowedValues: []string{MergeBySubject, MergeByParents},
		Description:   "How merge commits are recognized and dropped",
	},
	"manifest_path": {
		Path:        "manifest_path",
		Type:        TypeString,
		Description: "Directory holding package.json and bower.json",
	},
	"watch_debounce": {
		Path:        "watch_debounce",
		Type:        TypeDuration,
		Description: "Quiet period before 'taglog watch' regenerates",
	},
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// SortedKeys returns every known key name in alphabetical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TypeLabel renders the key's type, listing the allowed values of enums.
func (s ConfigKeySchema) TypeLabel() string {
	if s.Type == TypeEnum {
		return fmt.Sprintf("%s(%s)", s.Type, strings.Join(s.AllowedValues, "|"))
	}
	return s.Type.String()
}
