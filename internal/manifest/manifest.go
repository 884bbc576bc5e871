// Package manifest reads and edits the version of an npm package manifest
// (package.json, plus a sibling bower.json when present) and maintains the
// sl-blip install hook. Edits are made on the raw JSON so key order and
// untouched values survive a round trip.
package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// PackageFile is the npm manifest name.
	PackageFile = "package.json"
	// BowerFile is kept in sync with PackageFile when present.
	BowerFile = "bower.json"
	// BlipFile is the install hook written next to the manifest.
	BlipFile = ".sl-blip.js"
	// BlipScript is the canonical command that runs the install hook.
	BlipScript = "node .sl-blip.js || exit 0"
	// BlipDependency is the legacy optional dependency replaced by BlipFile.
	BlipDependency = "sl-blip"
	// DefaultVersion is reported when the manifest has no version.
	DefaultVersion = "1.0.0-0"
)

// blipScriptPattern recognizes any form of the hook command.
var blipScriptPattern = regexp.MustCompile(`node \.sl-blip\.js`)

// installScripts are the npm lifecycle scripts that may host the hook, in the
// order a free slot is chosen.
var installScripts = []string{"preinstall", "postinstall", "install"}

//go:embed blip.js
var blipSource []byte

var (
	// ErrInvalidJSON reports a package.json that does not parse.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrNoBlipSlot reports that every install script is already taken.
	ErrNoBlipSlot = errors.New("unable to find suitable script for sl-blip")
)

// Manifest is a loaded package.json and its optional bower.json.
type Manifest struct {
	root      string
	pkgPath   string
	bowerPath string
	pkg       []byte
	// bower is nil when bower.json is absent or unreadable.
	bower []byte
}

// Load reads the manifest at path, which is either a package.json file or the
// directory containing one.
func Load(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	m := &Manifest{}
	if filepath.Base(abs) == PackageFile {
		m.pkgPath = abs
		m.root = filepath.Dir(abs)
	} else {
		m.root = abs
		m.pkgPath = filepath.Join(abs, PackageFile)
	}
	m.bowerPath = filepath.Join(m.root, BowerFile)

	m.pkg, err = os.ReadFile(m.pkgPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", m.pkgPath, err)
	}
	if !gjson.ValidBytes(m.pkg) || !gjson.ParseBytes(m.pkg).IsObject() {
		return nil, fmt.Errorf("%s: %w", m.pkgPath, ErrInvalidJSON)
	}

	if data, err := os.ReadFile(m.bowerPath); err == nil && gjson.ValidBytes(data) {
		m.bower = data
	}
	return m, nil
}

// Root returns the directory holding the manifest.
func (m *Manifest) Root() string { return m.root }

// PackagePath returns the package.json path.
func (m *Manifest) PackagePath() string { return m.pkgPath }

// HasBower reports whether a bower.json is kept in sync.
func (m *Manifest) HasBower() bool { return m.bower != nil }

// Name returns the package name, or the directory name when unset.
func (m *Manifest) Name() string {
	if name := strings.TrimSpace(m.get("name")); name != "" {
		return name
	}
	return filepath.Base(m.root)
}

// Version returns the package version, or DefaultVersion when unset.
func (m *Manifest) Version() string {
	if v := cleanVersion(m.get("version")); v != "" {
		return v
	}
	return DefaultVersion
}

// SetVersion records v in package.json and bower.json and returns the stored form.
func (m *Manifest) SetVersion(v string) (string, error) {
	v = cleanVersion(v)
	if v == "" {
		return "", errors.New("version must not be empty")
	}
	pkg, err := sjson.SetBytes(m.pkg, "version", v)
	if err != nil {
		return "", fmt.Errorf("setting version: %w", err)
	}
	if m.bower != nil {
		bower, err := sjson.SetBytes(m.bower, "version", v)
		if err != nil {
			return "", fmt.Errorf("setting bower version: %w", err)
		}
		m.bower = bower
	}
	m.pkg = pkg
	return v, nil
}

// NameVersion returns "name@version".
func (m *Manifest) NameVersion() string {
	return m.Name() + "@" + m.Version()
}

// OptionalDep returns the version range of an optional dependency.
func (m *Manifest) OptionalDep(name string) string {
	return m.get("optionalDependencies." + escapeKey(name))
}

// SetOptionalDep adds or updates an optional dependency; an empty ver removes it.
func (m *Manifest) SetOptionalDep(name, ver string) error {
	return m.setOrDelete("optionalDependencies."+escapeKey(name), ver)
}

// Script returns the named npm script.
func (m *Manifest) Script(name string) string {
	return m.get("scripts." + escapeKey(name))
}

// SetScript sets the named npm script; an empty cmd removes it.
func (m *Manifest) SetScript(name, cmd string) error {
	return m.setOrDelete("scripts."+escapeKey(name), cmd)
}

// HasBlip reports whether the package uses the install hook, either through
// the legacy optional dependency or an install script.
func (m *Manifest) HasBlip() bool {
	if m.OptionalDep(BlipDependency) != "" {
		return true
	}
	for _, name := range installScripts {
		if blipScriptPattern.MatchString(m.Script(name)) {
			return true
		}
	}
	return false
}

// UpdateBlip rewrites BlipFile, drops the legacy dependency and points an
// install script at the hook: the one already running it, else the first free
// one of preinstall, postinstall and install.
func (m *Manifest) UpdateBlip() error {
	if err := os.WriteFile(filepath.Join(m.root, BlipFile), blipSource, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", BlipFile, err)
	}
	if err := m.SetOptionalDep(BlipDependency, ""); err != nil {
		return err
	}

	for _, name := range installScripts {
		if blipScriptPattern.MatchString(m.Script(name)) {
			return m.SetScript(name, BlipScript)
		}
	}
	for _, name := range installScripts {
		if m.Script(name) == "" {
			return m.SetScript(name, BlipScript)
		}
	}
	return ErrNoBlipSlot
}

// Persist refreshes the install hook when the package uses it, then writes
// package.json and bower.json as two-space indented JSON.
func (m *Manifest) Persist() error {
	if m.HasBlip() {
		if err := m.UpdateBlip(); err != nil {
			return err
		}
	}
	if err := writeJSON(m.pkgPath, m.pkg); err != nil {
		return err
	}
	if m.bower != nil {
		return writeJSON(m.bowerPath, m.bower)
	}
	return nil
}

func (m *Manifest) get(path string) string {
	r := gjson.GetBytes(m.pkg, path)
	if !r.Exists() {
		return ""
	}
	return r.String()
}

func (m *Manifest) setOrDelete(path, value string) error {
	var (
		out []byte
		err error
	)
	if value != "" {
		out, err = sjson.SetBytes(m.pkg, path, value)
	} else if gjson.GetBytes(m.pkg, path).Exists() {
		out, err = sjson.DeleteBytes(m.pkg, path)
	} else {
		return nil
	}
	if err != nil {
		return fmt.Errorf("editing %s: %w", path, err)
	}
	m.pkg = out
	return nil
}

// writeJSON re-indents data with two spaces and a trailing newline, keeping
// key order and value spelling.
func writeJSON(path string, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err != nil {
		return fmt.Errorf("formatting %s: %w", path, err)
	}
	buf.WriteByte('\n')
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// cleanVersion trims whitespace and a leading "v" or "=" from a version.
func cleanVersion(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "=")
	if len(v) > 1 && v[0] == 'v' && v[1] >= '0' && v[1] <= '9' {
		v = v[1:]
	}
	return v
}

// escapeKey escapes the characters gjson and sjson treat as path syntax, so
// names such as "lodash.get" address a single key.
func escapeKey(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch r {
		case '\\', '.', '*', '?', '|', '#', '@', '!', '=', '<', '>', '%', ':':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
