package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/taglog/internal/config"
)

// testRepo is a linear history with two tags and one unreleased commit:
//
//	2024-03-01 Initial import (alice)   v1.0.0
//	2024-03-02 Add parser (bob)
//	2024-03-03 1.1.0 (alice)            v1.1.0
//	2024-03-04 Fix crash (bob)
type testRepo struct {
	t    *testing.T
	dir  string
	repo *gogit.Repository
	head plumbing.Hash
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	r := &testRepo{t: t, dir: dir, repo: repo}

	c1 := r.commit("Initial import", "alice", 1)
	r.tag("v1.0.0", c1)
	r.commit("Add parser", "bob", 2)
	c3 := r.commit("1.1.0", "alice", 3)
	r.tag("v1.1.0", c3)
	r.commit("Fix crash", "bob", 4)
	return r
}

// commit records a change dated at noon UTC on the given day of March 2024.
func (r *testRepo) commit(message, author string, day int) plumbing.Hash {
	r.t.Helper()

	wt, err := r.repo.Worktree()
	require.NoError(r.t, err)

	path := filepath.Join(r.dir, "history.txt")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(r.t, err)
	_, err = f.WriteString(message + "\n")
	require.NoError(r.t, err)
	require.NoError(r.t, f.Close())
	_, err = wt.Add("history.txt")
	require.NoError(r.t, err)

	sig := &object.Signature{
		Name:  author,
		Email: author + "@example.com",
		When:  time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC),
	}
	hash, err := wt.Commit(message, &gogit.CommitOptions{Author: sig, Committer: sig})
	require.NoError(r.t, err)
	r.head = hash
	return hash
}

func (r *testRepo) tag(name string, hash plumbing.Hash) {
	r.t.Helper()
	_, err := r.repo.CreateTag(name, hash, nil)
	require.NoError(r.t, err)
}

// testConfig reads dir with the native backend and writes CHANGES.md into it.
func testConfig(dir string) *config.Configuration {
	return &config.Configuration{
		RepoPath:            dir,
		OutputFile:          filepath.Join(dir, "CHANGES.md"),
		Backend:             "native",
		GitBinary:           "git",
		DropSelfVersionLine: true,
		MergeDetection:      config.MergeBySubject,
		ManifestPath:        dir,
		WatchDebounce:       10 * time.Millisecond,
	}
}

// testCmd returns a command whose output is captured.
func testCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetContext(context.Background())
	return cmd, &stdout, &stderr
}

// fixNow pins the date of untagged releases.
func fixNow(t *testing.T, date time.Time) {
	t.Helper()
	orig := now
	now = func() time.Time { return date }
	t.Cleanup(func() { now = orig })
}

// section renders one expected markdown release.
func section(heading string, lines ...string) string {
	var b strings.Builder
	b.WriteString(heading + "\n" + strings.Repeat("=", len(heading)) + "\n\n")
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(" * " + line)
	}
	return b.String()
}

// document joins sections newest first, as written to CHANGES.md.
func document(sections ...string) string {
	return strings.Join(sections, "\n\n") + "\n"
}
