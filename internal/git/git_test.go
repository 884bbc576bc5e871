package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_NotARepository(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(context.Background(), OpenOptions{Path: dir})
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestOpen_DetectsRootFromSubdirectory(t *testing.T) {
	h := newHistory(t)
	sub := filepath.Join(h.dir, "nested", "deeper")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	repo, err := Open(context.Background(), OpenOptions{Path: sub})
	require.NoError(t, err)
	defer repo.Close()

	want, err := filepath.EvalSymlinks(h.dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(repo.Root())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, filepath.Join(repo.Root(), ".git"), repo.GitDir())
}

func TestOpen_BareCloneFallback(t *testing.T) {
	if _, err := exec.LookPath("git-upload-pack"); err != nil {
		t.Skip("git-upload-pack not installed")
	}
	h := newHistory(t)
	url := "file://" + h.dir

	_, err := Open(context.Background(), OpenOptions{Path: url})
	require.ErrorIs(t, err, ErrSourceUnavailable, "URLs are only cloned when the fallback is allowed")

	repo, err := Open(context.Background(), OpenOptions{Path: url, AllowBareCloneFallback: true})
	require.NoError(t, err)
	assert.Equal(t, repo.Root(), repo.GitDir())

	p, err := repo.Provider(BackendNative)
	require.NoError(t, err)
	tags, err := p.Tags()
	require.NoError(t, err)
	assert.Contains(t, tags, "v1.1.0")

	id, err := p.RevParse("v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, h.c1.String(), id)

	clone := repo.Root()
	require.NoError(t, repo.Close())
	assert.NoDirExists(t, clone)
}

func TestOpen_BareCloneFallbackFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	_, err := Open(context.Background(), OpenOptions{Path: missing, AllowBareCloneFallback: true})
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestRepo_ProviderUnknownBackend(t *testing.T) {
	h := newHistory(t)
	repo, err := Open(context.Background(), OpenOptions{Path: h.dir})
	require.NoError(t, err)

	_, err = repo.Provider("svn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown history backend")
}

func TestRepo_GitDirFollowsGitFile(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "worktrees", "feature")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git"), []byte("gitdir: "+target+"\n"), 0o644))

	r := &Repo{root: root}
	assert.Equal(t, target, r.GitDir())

	bare := &Repo{root: root, bare: true}
	assert.Equal(t, root, bare.GitDir())
}

func TestRepo_CloseWithoutClone(t *testing.T) {
	var r *Repo
	assert.NoError(t, r.Close())
	assert.NoError(t, (&Repo{}).Close())
}

func TestIsSSHURL(t *testing.T) {
	tests := map[string]struct {
		url  string
		want bool
	}{
		"scp style":     {url: "git@github.com:owner/repo.git", want: true},
		"ssh scheme":    {url: "ssh://git@github.com/owner/repo.git", want: true},
		"git+ssh":       {url: "git+ssh://git@github.com/owner/repo.git", want: true},
		"https":         {url: "https://github.com/owner/repo.git", want: false},
		"local path":    {url: "/srv/git/repo.git", want: false},
		"file protocol": {url: "file:///srv/git/repo.git", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, isSSHURL(tt.url))
		})
	}
}

func TestGetAuthForURL(t *testing.T) {
	t.Run("ssh without agent", func(t *testing.T) {
		t.Setenv("SSH_AUTH_SOCK", "")
		assert.Nil(t, getAuthForURL("git@github.com:owner/repo.git"))
	})

	t.Run("https with credentials", func(t *testing.T) {
		t.Setenv("GIT_USERNAME", "ci")
		t.Setenv("GIT_PASSWORD", "secret")
		t.Setenv("GITHUB_TOKEN", "")

		auth, ok := getAuthForURL("https://github.com/owner/repo.git").(*http.BasicAuth)
		require.True(t, ok)
		assert.Equal(t, "ci", auth.Username)
		assert.Equal(t, "secret", auth.Password)
	})

	t.Run("https with token", func(t *testing.T) {
		t.Setenv("GIT_USERNAME", "")
		t.Setenv("GITHUB_TOKEN", "ghp_token")

		auth, ok := getAuthForURL("https://github.com/owner/repo.git").(*http.BasicAuth)
		require.True(t, ok)
		assert.Equal(t, "ghp_token", auth.Username)
		assert.Empty(t, auth.Password)
	})

	t.Run("https anonymous", func(t *testing.T) {
		t.Setenv("GIT_USERNAME", "")
		t.Setenv("GITHUB_TOKEN", "")
		assert.Nil(t, getAuthForURL("https://github.com/owner/repo.git"))
	})
}
