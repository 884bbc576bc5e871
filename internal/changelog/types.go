package changelog

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// firstReleaseLine is the body of the oldest release; history before the
// first tag is not enumerated.
const firstReleaseLine = "First release!"

// Source is the commit history the changelog is built from.
type Source interface {
	Resolve(ref string) (string, error)
	DateOf(ref string) (string, error)
	LogBetween(from, to string) ([]string, error)
	AllTags() ([]string, error)
	BranchAncestryOrder() ([]string, error)
}

// Tag is a release marker reachable from the current branch tip.
type Tag struct {
	Name string
	ID   string
	Date string
}

// Version returns the tag name with a single leading "v" stripped.
func (t Tag) Version() string {
	return CleanVersion(t.Name)
}

// Release is everything that changed since the previous tag.
type Release struct {
	Version string
	Date    string
	// Lines are filtered commit lines without bullet prefixes.
	Lines        []string
	FirstRelease bool
	// Pending marks the untagged release between the last tag and HEAD.
	Pending bool
}

// Heading returns the "<date>, Version <version>" section title.
func (r Release) Heading() string {
	return fmt.Sprintf("%s, Version %s", r.Date, r.Version)
}

// Markdown renders the release as a heading, an "=" underline of the same
// length, a blank line and the bulleted body.
func (r Release) Markdown() string {
	heading := r.Heading()
	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", utf8.RuneCountInString(heading)))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSuffix(Body(r.Lines), "\n"))
	return b.String()
}

// Changelog is the ordered release history, oldest release first.
type Changelog struct {
	Releases []Release
}

// Latest returns the newest release, or nil when there are none.
func (c *Changelog) Latest() *Release {
	if len(c.Releases) == 0 {
		return nil
	}
	return &c.Releases[len(c.Releases)-1]
}

// CleanVersion strips a single leading "v". Anything else is returned
// verbatim; an odd version string is a display concern, not an error.
func CleanVersion(version string) string {
	return strings.TrimPrefix(strings.TrimSpace(version), "v")
}
