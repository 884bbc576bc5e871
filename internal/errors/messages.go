package errors

import "fmt"

// Common error messages for the taglog CLI.
// These templates ensure consistent, actionable error messages.

// NotARepository creates an error when the configured path is not a git repository.
func NotARepository(path string, err error) *CLIError {
	return WrapWithMessage(err, Source,
		fmt.Sprintf("cannot read history at %s", path),
		"Run taglog inside a git repository, or pass --repo <path>",
		"Set allow_bare_clone_fallback: true to clone a URL into a temporary bare repository",
	)
}

// SourceUnavailable creates an error when the history backend fails mid-run.
func SourceUnavailable(backend string, err error) *CLIError {
	return WrapWithMessage(err, Source,
		fmt.Sprintf("history backend %q failed", backend),
		"Check that git is installed and on PATH: git --version",
		"Or switch to the built-in backend: TAGLOG_BACKEND=native",
		"Re-run with --debug to see the git commands being executed",
	)
}

// UnresolvableRef creates an error when a tag or ref does not name a commit.
func UnresolvableRef(err error) *CLIError {
	return WrapWithMessage(err, Reference,
		"a ref could not be resolved",
		"List tags with: git tag",
		"Fetch missing tags with: git fetch --tags",
	)
}

// ConfigParseError creates an error for invalid config file format.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to parse config file: %s", path),
		"Check the file for YAML or JSON syntax errors",
		"Print the effective configuration with: taglog config show",
	)
}

// InvalidConfigValue creates an error for a configuration value outside its allowed set.
func InvalidConfigValue(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"invalid configuration",
		"Print the effective configuration with: taglog config show",
		"Environment variables (TAGLOG_*) override config files",
	)
}

// InvalidFlagCombination creates an error for incompatible flag combinations.
func InvalidFlagCombination(flags string, reason string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid flag combination: %s", flags),
		reason,
		"Use 'taglog <command> --help' to see valid options",
	)
}

// InvalidFormat creates an error for an unknown output format.
func InvalidFormat(format string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("unknown format: %s", format),
		"taglog changelog --format markdown|yaml",
		"Markdown is written to files; YAML is for scripts and dashboards",
	)
}

// InvalidVersion creates an error for a blank or malformed version argument.
func InvalidVersion(version string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid version: %q", version),
		"taglog manifest set <version>",
		"Versions look like 1.2.3 or v1.2.3",
	)
}

// ManifestNotFound creates an error when no package.json exists.
func ManifestNotFound(path string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("package.json not found in %s", path),
		"Run the command from the project directory, or pass its path",
	)
}

// ManifestParseError creates an error for an unreadable package.json or bower.json.
func ManifestParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to parse %s", path),
		"Validate with: jq . "+path,
	)
}

// FileNotWritable creates an error when a file cannot be written.
func FileNotWritable(path string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("cannot write to file: %s", path),
		"Check file permissions: ls -la "+path,
		"Ensure parent directory exists and is writable",
	)
}
