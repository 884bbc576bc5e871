package changelog

import (
	"strings"
	"testing"
	"time"

	"github.com/ariel-frischer/taglog/internal/git"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func fixedNow() time.Time {
	return time.Date(2026, 10, 15, 23, 30, 0, 0, time.FixedZone("PDT", -7*60*60))
}

func newTestRenderer(p *fakeProvider) *Renderer {
	r := NewRenderer(git.NewSource(p))
	r.Now = fixedNow
	return r
}

func section(heading string, bullets ...string) string {
	return heading + "\n" + strings.Repeat("=", len(heading)) + "\n\n" + strings.Join(bullets, "\n")
}

func TestRenderer_Build(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		provider    func() *fakeProvider
		nextVersion string
		want        string
	}{
		"deduplicated release between two tags": {
			provider: twoReleaseHistory,
			want: section("2024-02-01, Version 1.1.0", " * Add feature (alice)", " * Fix bug (bob)") + "\n\n" +
				section("2024-01-01, Version 1.0.0", " * First release!") + "\n",
		},
		"no tags": {
			provider: func() *fakeProvider {
				return &fakeProvider{refs: map[string]string{"HEAD": "c1"}}
			},
			// The pending date is taken in UTC: 23:30 PDT is already the 16th.
			want: section("2026-10-16, Version 0.0.0", " * First release!") + "\n",
		},
		"no tags with next version": {
			provider: func() *fakeProvider {
				return &fakeProvider{refs: map[string]string{"HEAD": "c1"}}
			},
			nextVersion: "v3.1.0",
			want:        section("2026-10-16, Version 3.1.0", " * First release!") + "\n",
		},
		"head at last tag emits no pending release": {
			provider:    twoReleaseHistory,
			nextVersion: "2.0.0",
			want: section("2024-02-01, Version 1.1.0", " * Add feature (alice)", " * Fix bug (bob)") + "\n\n" +
				section("2024-01-01, Version 1.0.0", " * First release!") + "\n",
		},
		"pending release after last tag": {
			provider: func() *fakeProvider {
				p := twoReleaseHistory()
				p.refs["HEAD"] = "c3"
				p.logs["c2..c3"] = []string{"2.0.0 (alice)", "Drop legacy flag (carol)", "Merge branch 'x' (carol)"}
				return p
			},
			nextVersion: "v2.0.0",
			want: section("2026-10-16, Version 2.0.0", " * Drop legacy flag (carol)") + "\n\n" +
				section("2024-02-01, Version 1.1.0", " * Add feature (alice)", " * Fix bug (bob)") + "\n\n" +
				section("2024-01-01, Version 1.0.0", " * First release!") + "\n",
		},
		"pending release ignored without next version": {
			provider: func() *fakeProvider {
				p := twoReleaseHistory()
				p.refs["HEAD"] = "c3"
				p.logs["c2..c3"] = []string{"Unreleased work (carol)"}
				return p
			},
			want: section("2024-02-01, Version 1.1.0", " * Add feature (alice)", " * Fix bug (bob)") + "\n\n" +
				section("2024-01-01, Version 1.0.0", " * First release!") + "\n",
		},
		"empty pending release is omitted": {
			provider: func() *fakeProvider {
				p := twoReleaseHistory()
				p.refs["HEAD"] = "c3"
				p.logs["c2..c3"] = []string{"Merge branch 'x' (carol)"}
				return p
			},
			nextVersion: "2.0.0",
			want: section("2024-02-01, Version 1.1.0", " * Add feature (alice)", " * Fix bug (bob)") + "\n\n" +
				section("2024-01-01, Version 1.0.0", " * First release!") + "\n",
		},
		"empty intermediate release is omitted": {
			provider: func() *fakeProvider {
				p := twoReleaseHistory()
				p.refs["v1.2.0"] = "c3"
				p.refs["HEAD"] = "c3"
				p.dates["c3"] = "2024-03-01"
				p.tags = append(p.tags, "v1.2.0")
				p.order = append(p.order, "c3")
				p.logs["c2..c3"] = []string{"1.2.0 (bot)", "Update CHANGES.md (bot)"}
				return p
			},
			want: section("2024-02-01, Version 1.1.0", " * Add feature (alice)", " * Fix bug (bob)") + "\n\n" +
				section("2024-01-01, Version 1.0.0", " * First release!") + "\n",
		},
		"self version commit dropped from its release": {
			provider: func() *fakeProvider {
				p := twoReleaseHistory()
				p.logs["c1..c2"] = []string{"1.1.0 (alice)", "Fix parser (alice)"}
				return p
			},
			want: section("2024-02-01, Version 1.1.0", " * Fix parser (alice)") + "\n\n" +
				section("2024-01-01, Version 1.0.0", " * First release!") + "\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, err := newTestRenderer(tt.provider()).Build(tt.nextVersion)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Markdown())
		})
	}
}

func TestRenderer_BuildIsDeterministic(t *testing.T) {
	t.Parallel()

	first, err := newTestRenderer(twoReleaseHistory()).Build("")
	require.NoError(t, err)
	second, err := newTestRenderer(twoReleaseHistory()).Build("")
	require.NoError(t, err)

	assert.Equal(t, first.Markdown(), second.Markdown())
}

func TestRenderer_UnderlinesMatchHeadings(t *testing.T) {
	t.Parallel()

	p := twoReleaseHistory()
	p.refs["HEAD"] = "c3"
	p.logs["c2..c3"] = []string{"Ünïcödé support (zoë)"}

	c, err := newTestRenderer(p).Build("10.20.30-beta.1")
	require.NoError(t, err)

	lines := strings.Split(c.Markdown(), "\n")
	underlines := 0
	for i, line := range lines {
		if line == "" || strings.Trim(line, "=") != "" {
			continue
		}
		require.Positive(t, i)
		assert.Equal(t, len([]rune(lines[i-1])), len([]rune(line)), "underline for %q", lines[i-1])
		underlines++
	}
	assert.Equal(t, 3, underlines)
}

func TestRenderer_ResolvesEachRefOnce(t *testing.T) {
	t.Parallel()

	p := twoReleaseHistory()
	p.refs["HEAD"] = "c3"
	p.logs["c2..c3"] = []string{"More (alice)"}

	_, err := newTestRenderer(p).Build("2.0.0")
	require.NoError(t, err)

	for key, n := range p.calls {
		if strings.HasPrefix(key, "RevParse:") || strings.HasPrefix(key, "CommitDate:") {
			assert.Equal(t, 1, n, key)
		}
	}
}

func TestRenderer_Latest(t *testing.T) {
	t.Parallel()

	withPending := func() *fakeProvider {
		p := twoReleaseHistory()
		p.refs["HEAD"] = "c3"
		p.logs["c2..c3"] = []string{"Add export (alice)", "Add export (alice)", "Merge branch 'y' (bob)", "Tidy docs (bob)"}
		return p
	}

	tests := map[string]struct {
		provider func() *fakeProvider
		version  string
		want     string
	}{
		"unreleased changes only": {
			provider: withPending,
			want:     " * Add export (alice)\n * Tidy docs (bob)\n",
		},
		"version annotation": {
			provider: withPending,
			version:  "v1.2.0",
			want:     "1.2.0\n\n * Add export (alice)\n * Tidy docs (bob)\n",
		},
		"head at last tag": {
			provider: twoReleaseHistory,
			want:     "",
		},
		"no tags": {
			provider: func() *fakeProvider {
				return &fakeProvider{refs: map[string]string{"HEAD": "c1"}}
			},
			want: " * First release!\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := newTestRenderer(tt.provider()).Latest(tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChangelog_Render(t *testing.T) {
	t.Parallel()

	p := twoReleaseHistory()
	p.refs["HEAD"] = "c3"
	p.logs["c2..c3"] = []string{"Next (alice)"}
	c, err := newTestRenderer(p).Build("1.2.0")
	require.NoError(t, err)

	md, err := c.Render(FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, c.Markdown(), md)

	out, err := c.Render(FormatYAML)
	require.NoError(t, err)

	var doc struct {
		Releases []struct {
			Version string   `yaml:"version"`
			Date    string   `yaml:"date"`
			Pending bool     `yaml:"pending"`
			Changes []string `yaml:"changes"`
		} `yaml:"releases"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Releases, 3)
	assert.Equal(t, "1.2.0", doc.Releases[0].Version)
	assert.True(t, doc.Releases[0].Pending)
	assert.Equal(t, []string{"Next (alice)"}, doc.Releases[0].Changes)
	assert.Equal(t, "1.0.0", doc.Releases[2].Version)

	_, err = c.Render("html")
	assert.Error(t, err)
}

func TestCleanVersion(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in   string
		want string
	}{
		"v prefix":      {in: "v1.2.3", want: "1.2.3"},
		"no prefix":     {in: "1.2.3", want: "1.2.3"},
		"only one v":    {in: "vv1.0.0", want: "v1.0.0"},
		"verbatim text": {in: "nightly", want: "nightly"},
		"whitespace":    {in: " v2.0.0 ", want: "2.0.0"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanVersion(tt.in))
		})
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	same, err := Diff("CHANGES.md", "a\nb\n", "a\nb\n")
	require.NoError(t, err)
	assert.Empty(t, same)

	diff, err := Diff("CHANGES.md", "a\nb\n", "a\nc\n")
	require.NoError(t, err)
	assert.Contains(t, diff, "--- CHANGES.md")
	assert.Contains(t, diff, "+++ CHANGES.md (generated)")
	assert.Contains(t, diff, "-b")
	assert.Contains(t, diff, "+c")
}
