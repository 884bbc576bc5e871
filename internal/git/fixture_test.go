package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// fixture builds a repository on disk with fully controlled timestamps.
type fixture struct {
	t     *testing.T
	dir   string
	repo  *gogit.Repository
	wt    *gogit.Worktree
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	return &fixture{
		t:    t,
		dir:  dir,
		repo: repo,
		wt:   wt,
		// Late evening west of UTC: the author date differs from the UTC date.
		clock: time.Date(2024, 1, 1, 23, 30, 0, 0, time.FixedZone("EST", -5*60*60)),
	}
}

func (f *fixture) signature(author string) *object.Signature {
	return &object.Signature{Name: author, Email: author + "@example.com", When: f.clock}
}

// commit records a change authored a day after the previous commit.
func (f *fixture) commit(message, author string, parents ...plumbing.Hash) plumbing.Hash {
	f.t.Helper()

	f.clock = f.clock.Add(24 * time.Hour)
	path := filepath.Join(f.dir, "history.txt")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(f.t, err)
	_, err = file.WriteString(message + "\n")
	require.NoError(f.t, err)
	require.NoError(f.t, file.Close())

	_, err = f.wt.Add("history.txt")
	require.NoError(f.t, err)

	hash, err := f.wt.Commit(message, &gogit.CommitOptions{
		Author:    f.signature(author),
		Committer: f.signature(author),
		Parents:   parents,
	})
	require.NoError(f.t, err)
	return hash
}

func (f *fixture) tag(name string, hash plumbing.Hash, annotated bool) {
	f.t.Helper()

	var opts *gogit.CreateTagOptions
	if annotated {
		opts = &gogit.CreateTagOptions{Tagger: f.signature("releaser"), Message: "Release " + name}
	}
	_, err := f.repo.CreateTag(name, hash, opts)
	require.NoError(f.t, err)
}

func (f *fixture) resetTo(hash plumbing.Hash) {
	f.t.Helper()
	require.NoError(f.t, f.wt.Reset(&gogit.ResetOptions{Commit: hash, Mode: gogit.HardReset}))
}

// history is the repository shared by the provider tests:
//
//	c1 (v1.0.0, annotated) -- c2 -------- m (v1.1.0, HEAD)
//	  \                                  /
//	   f1 ------------------------------'
//	  \
//	   x1 (v0.9.0-hotfix, not on HEAD)
type history struct {
	*fixture
	c1, f1, x1, c2, m plumbing.Hash
}

func newHistory(t *testing.T) *history {
	t.Helper()

	h := &history{fixture: newFixture(t)}
	h.c1 = h.commit("Initial import", "alice")
	h.tag("v1.0.0", h.c1, true)

	h.x1 = h.commit("Hotfix on a dead branch", "mallory")
	h.tag("v0.9.0-hotfix", h.x1, false)
	h.resetTo(h.c1)

	h.f1 = h.commit("Feature work", "bob")
	h.resetTo(h.c1)

	h.c2 = h.commit("Main work\n\nLonger description.", "alice")
	h.m = h.commit("Merge branch 'feature'", "alice", h.c2, h.f1)
	h.tag("v1.1.0", h.m, false)
	return h
}

// providers returns every backend that can run on this host.
func providers(t *testing.T, dir string) map[string]Provider {
	t.Helper()

	repo, err := Open(context.Background(), OpenOptions{Path: dir})
	require.NoError(t, err)

	out := map[string]Provider{}
	native, err := repo.Provider(BackendNative)
	require.NoError(t, err)
	out[BackendNative] = native

	if _, err := exec.LookPath("git"); err == nil {
		cli, err := repo.Provider(BackendCLI)
		require.NoError(t, err)
		out[BackendCLI] = cli
	}
	return out
}
