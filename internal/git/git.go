// Package git provides read-only access to a repository's tag and commit
// history for taglog. History is reached through a Provider: the default
// implementation shells out to the git executable, and a pure-Go
// implementation built on go-git is available for hosts without git installed.
// Source wraps a Provider with the per-run memoization the changelog
// generator relies on.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

var (
	// ErrSourceUnavailable reports that the history backend cannot be reached,
	// or that the path is not a usable repository.
	ErrSourceUnavailable = errors.New("history source unavailable")
	// ErrUnresolvableRef reports a ref that does not name a commit.
	ErrUnresolvableRef = errors.New("unresolvable ref")
)

// Backend names accepted by Repo.Provider.
const (
	BackendCLI    = "gitcli"
	BackendNative = "native"
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// OpenOptions controls how a repository is located.
type OpenOptions struct {
	// Path is a filesystem path inside a repository, or a clone URL when
	// AllowBareCloneFallback is set. Empty means the working directory.
	Path string
	// AllowBareCloneFallback clones Path into a temporary bare repository
	// when it cannot be opened in place.
	AllowBareCloneFallback bool
	// GitBinary is the executable used by the gitcli backend.
	GitBinary string
}

// Repo is an opened repository.
type Repo struct {
	root      string
	bare      bool
	gitBinary string
	repo      *git.Repository
	cleanup   func() error
}

// Open locates the repository described by opts.
func Open(ctx context.Context, opts OpenOptions) (*Repo, error) {
	path := opts.Path
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}
	gitBinary := opts.GitBinary
	if gitBinary == "" {
		gitBinary = "git"
	}

	repo, root, err := openRepo(path)
	if err == nil {
		return &Repo{root: root, bare: isBare(repo), gitBinary: gitBinary, repo: repo}, nil
	}
	if !opts.AllowBareCloneFallback {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	logDebug("[git] %s is not a repository, cloning bare copy", path)
	return cloneBare(ctx, path, gitBinary)
}

// openRepo opens a git repository at the specified path.
// It uses go-git's PlainOpenWithOptions with DetectDotGit enabled to traverse
// up the directory tree to find the repository root.
func openRepo(path string) (*git.Repository, string, error) {
	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("opening repository at %s: %w", path, err)
	}

	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	} else if abs, err := filepath.Abs(path); err == nil {
		root = abs
	}

	logDebug("[git] repository opened at %s", root)
	return repo, root, nil
}

func isBare(repo *git.Repository) bool {
	_, err := repo.Worktree()
	return errors.Is(err, git.ErrIsBareRepository)
}

// cloneBare clones url into a fresh temporary directory.
func cloneBare(ctx context.Context, url, gitBinary string) (*Repo, error) {
	dir, err := os.MkdirTemp("", "taglog-clone-")
	if err != nil {
		return nil, fmt.Errorf("creating clone directory: %w", err)
	}
	cleanup := func() error { return os.RemoveAll(dir) }

	repo, err := git.PlainCloneContext(ctx, dir, true, &git.CloneOptions{
		URL:  url,
		Auth: getAuthForURL(url),
		Tags: git.AllTags,
	})
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("%w: cloning %s: %v", ErrSourceUnavailable, url, err)
	}

	logDebug("[git] cloned %s into %s", url, dir)
	return &Repo{root: dir, bare: true, gitBinary: gitBinary, repo: repo, cleanup: cleanup}, nil
}

// Root returns the working tree root, or the repository directory for bare repositories.
func (r *Repo) Root() string {
	return r.root
}

// GitDir returns the directory that holds HEAD, packed-refs and refs/.
func (r *Repo) GitDir() string {
	if r.bare {
		return r.root
	}
	dotGit := filepath.Join(r.root, ".git")
	info, err := os.Stat(dotGit)
	if err == nil && info.IsDir() {
		return dotGit
	}
	// .git files (worktrees, submodules) point elsewhere.
	if data, err := os.ReadFile(dotGit); err == nil {
		if target, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "gitdir: "); ok {
			if !filepath.IsAbs(target) {
				target = filepath.Join(r.root, target)
			}
			return target
		}
	}
	return dotGit
}

// Provider returns the history provider for the named backend.
func (r *Repo) Provider(backend string) (Provider, error) {
	switch backend {
	case "", BackendCLI:
		return newCLIProvider(r.gitBinary, r.root), nil
	case BackendNative:
		return newNativeProvider(r.repo), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q (available: %s, %s)", backend, BackendCLI, BackendNative)
	}
}

// Close releases the temporary clone, if any.
func (r *Repo) Close() error {
	if r == nil || r.cleanup == nil {
		return nil
	}
	return r.cleanup()
}

// getAuthForURL returns the appropriate authentication method for a remote URL.
// SSH URLs use SSH agent auth, HTTPS URLs use environment credentials.
func getAuthForURL(url string) transport.AuthMethod {
	if isSSHURL(url) {
		if !isSSHAgentAvailable() {
			return nil
		}
		auth, err := ssh.NewSSHAgentAuth("git")
		if err != nil {
			logDebug("[git] SSH agent auth failed: %v", err)
			return nil
		}
		return auth
	}

	username := os.Getenv("GIT_USERNAME")
	password := os.Getenv("GIT_PASSWORD")
	if username == "" {
		username = os.Getenv("GITHUB_TOKEN")
		if username != "" {
			password = "" // GitHub token can be used as username with empty password
		}
	}

	if username != "" {
		return &http.BasicAuth{
			Username: username,
			Password: password,
		}
	}

	return nil
}

// isSSHURL detects git@ (SCP-style), ssh:// and git+ssh:// remotes.
func isSSHURL(url string) bool {
	return strings.HasPrefix(url, "git@") ||
		strings.HasPrefix(url, "ssh://") ||
		strings.HasPrefix(url, "git+ssh://")
}

func isSSHAgentAvailable() bool {
	sock := strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK"))
	return sock != ""
}
