package config

import "time"

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# taglog configuration
# See 'taglog config keys' for all options. TAGLOG_<KEY> env vars override this file.

# History
repo_path: .                          # Repository to read (or clone URL with allow_bare_clone_fallback)
backend: gitcli                       # History backend: gitcli | native
git_binary: git                       # Executable used by the gitcli backend
allow_bare_clone_fallback: false      # Clone repo_path into a temp bare repo when it cannot be opened

# Changelog
output_file: CHANGES.md               # File written by 'taglog changelog'
drop_self_version_line: true          # Drop a release's own "1.2.3 (author)" line from its body
merge_detection: subject              # Merge commits: subject ("Merge...") | parents (2+ parents)

# Manifest
manifest_path: .                      # Directory holding package.json and bower.json

# Watch
watch_debounce: 500ms                 # Quiet period before 'taglog watch' regenerates
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"repo_path":   ".",
		"output_file": "CHANGES.md",
		// backend: gitcli matches plain git behavior exactly; native needs no
		// git executable.
		"backend":    "gitcli",
		"git_binary": "git",
		// drop_self_version_line: releases do not list their own version-bump
		// commit (e.g. "1.2.3 (alice)" inside the 1.2.3 section).
		"drop_self_version_line":    true,
		"allow_bare_clone_fallback": false,
		"merge_detection":           MergeBySubject,
		"manifest_path":             ".",
		"watch_debounce":            (500 * time.Millisecond).String(),
	}
}
