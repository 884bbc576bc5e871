package changelog

import (
	"fmt"
	"strings"
	"time"

	"github.com/ariel-frischer/taglog/internal/git"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by Changelog.Render.
const (
	FormatMarkdown = "markdown"
	FormatYAML     = "yaml"
)

// Renderer builds a Changelog from a Source.
type Renderer struct {
	Source Source
	Filter FilterOptions
	// Now supplies the date of untagged releases. Defaults to time.Now.
	Now func() time.Time
}

// NewRenderer creates a Renderer with every filter rule enabled.
func NewRenderer(source Source) *Renderer {
	return &Renderer{
		Source: source,
		Filter: DefaultFilterOptions(),
		Now:    time.Now,
	}
}

// today returns the current UTC date as YYYY-MM-DD.
func (r *Renderer) today() string {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	return now().UTC().Format("2006-01-02")
}

// Build reconstructs the release history. nextVersion, when set, names the
// pending release made of commits after the last tag; it is ignored when
// HEAD is the last tag.
//
// The function is deterministic - given the same history and no pending
// release, it produces identical output.
func (r *Renderer) Build(nextVersion string) (*Changelog, error) {
	tags, err := NewSequencer(r.Source).Sequence()
	if err != nil {
		return nil, err
	}

	c := &Changelog{}
	if len(tags) == 0 {
		version := nextVersion
		if version == "" {
			version = "0.0.0"
		}
		c.Releases = append(c.Releases, Release{
			Version:      CleanVersion(version),
			Date:         r.today(),
			Lines:        []string{firstReleaseLine},
			FirstRelease: true,
		})
		return c, nil
	}

	first := tags[0]
	c.Releases = append(c.Releases, Release{
		Version:      first.Version(),
		Date:         first.Date,
		Lines:        []string{firstReleaseLine},
		FirstRelease: true,
	})

	for i := 1; i < len(tags); i++ {
		prev, cur := tags[i-1], tags[i]
		lines, err := r.releaseLines(prev.ID, cur.ID, cur.Version())
		if err != nil {
			return nil, fmt.Errorf("collecting changes for %s: %w", cur.Name, err)
		}
		if len(lines) == 0 {
			continue
		}
		c.Releases = append(c.Releases, Release{
			Version: cur.Version(),
			Date:    cur.Date,
			Lines:   lines,
		})
	}

	if nextVersion == "" {
		return c, nil
	}
	pending, err := r.pendingLines(tags[len(tags)-1], CleanVersion(nextVersion))
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		c.Releases = append(c.Releases, Release{
			Version: CleanVersion(nextVersion),
			Date:    r.today(),
			Lines:   pending,
			Pending: true,
		})
	}
	return c, nil
}

// Latest returns the summary of unreleased changes: the filtered bullets
// since the last tag, preceded by the clean version and a blank line when
// version is set. A repository without tags reports its first release.
func (r *Renderer) Latest(version string) (string, error) {
	tags, err := NewSequencer(r.Source).Sequence()
	if err != nil {
		return "", err
	}

	var body string
	if len(tags) == 0 {
		body = Body([]string{firstReleaseLine})
	} else {
		lines, err := r.pendingLines(tags[len(tags)-1], CleanVersion(version))
		if err != nil {
			return "", err
		}
		body = Body(lines)
	}

	if version == "" {
		return body, nil
	}
	return CleanVersion(version) + "\n\n" + body, nil
}

// pendingLines returns the filtered changes between last and HEAD, or nil
// when HEAD is last.
func (r *Renderer) pendingLines(last Tag, version string) ([]string, error) {
	head, err := r.Source.Resolve(git.Head)
	if err != nil {
		return nil, fmt.Errorf("resolving branch tip: %w", err)
	}
	if head == last.ID {
		return nil, nil
	}
	lines, err := r.releaseLines(last.ID, git.Head, version)
	if err != nil {
		return nil, fmt.Errorf("collecting unreleased changes: %w", err)
	}
	return lines, nil
}

func (r *Renderer) releaseLines(from, to, version string) ([]string, error) {
	raw, err := r.Source.LogBetween(from, to)
	if err != nil {
		return nil, err
	}
	return Filter(raw, version, r.Filter), nil
}

// Markdown renders the releases newest first, separated by blank lines,
// ending with a single newline.
func (c *Changelog) Markdown() string {
	blocks := make([]string, 0, len(c.Releases))
	for i := len(c.Releases) - 1; i >= 0; i-- {
		blocks = append(blocks, c.Releases[i].Markdown())
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

type yamlRelease struct {
	Version string   `yaml:"version"`
	Date    string   `yaml:"date"`
	Pending bool     `yaml:"pending,omitempty"`
	Changes []string `yaml:"changes"`
}

type yamlChangelog struct {
	Releases []yamlRelease `yaml:"releases"`
}

// YAML renders the releases newest first as a YAML document.
func (c *Changelog) YAML() (string, error) {
	doc := yamlChangelog{Releases: make([]yamlRelease, 0, len(c.Releases))}
	for i := len(c.Releases) - 1; i >= 0; i-- {
		rel := c.Releases[i]
		doc.Releases = append(doc.Releases, yamlRelease{
			Version: rel.Version,
			Date:    rel.Date,
			Pending: rel.Pending,
			Changes: rel.Lines,
		})
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling changelog: %w", err)
	}
	return string(out), nil
}

// Render renders the changelog in the named format.
func (c *Changelog) Render(format string) (string, error) {
	switch format {
	case "", FormatMarkdown:
		return c.Markdown(), nil
	case FormatYAML:
		return c.YAML()
	default:
		return "", fmt.Errorf("unknown format %q (available: %s, %s)", format, FormatMarkdown, FormatYAML)
	}
}
