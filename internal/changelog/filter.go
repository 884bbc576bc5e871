package changelog

import (
	"regexp"
	"strings"
)

var (
	// versionBumpPattern matches commits whose whole subject is a version.
	versionBumpPattern = regexp.MustCompile(`^v?\d+\.\d+\.\d+ \(`)
	// changelogUpdatePattern matches commits that regenerated a changelog.
	changelogUpdatePattern = regexp.MustCompile(`(?i)update (changes\.md|changelog)`)
)

// FilterOptions toggles the filter rules that differ between setups.
type FilterOptions struct {
	// DropSelfVersionLine drops a commit whose subject is the release's own version.
	DropSelfVersionLine bool
	// SubjectMerges drops lines whose subject starts with "Merge". Turned off
	// when merge commits are excluded by parent count instead.
	SubjectMerges bool
}

// DefaultFilterOptions enables every rule.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		DropSelfVersionLine: true,
		SubjectMerges:       true,
	}
}

// Filter cleans raw "<subject> (<author>)" lines for one release: merges,
// version bumps and changelog updates are dropped and duplicates removed,
// keeping first-seen order. Filtering its own output changes nothing.
func Filter(raw []string, releaseVersion string, opts FilterOptions) []string {
	selfPrefix := releaseVersion + " ("
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))

	for _, line := range raw {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case opts.SubjectMerges && strings.HasPrefix(line, "Merge"):
			continue
		case versionBumpPattern.MatchString(line):
			continue
		case changelogUpdatePattern.MatchString(line):
			continue
		case opts.DropSelfVersionLine && releaseVersion != "" && strings.HasPrefix(line, selfPrefix):
			continue
		case seen[line]:
			continue
		}
		seen[line] = true
		out = append(out, line)
	}
	return out
}

// Body renders lines as " * <line>\n" bullets.
func Body(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(" * ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
