package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/taglog/internal/changelog"
	"github.com/ariel-frischer/taglog/internal/config"
	clierrors "github.com/ariel-frischer/taglog/internal/errors"
	"github.com/ariel-frischer/taglog/internal/git"
)

// loadConfig loads configuration and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ConfigFile:    configPath,
		ProjectDir:    projectDir(),
		WarningWriter: cmd.ErrOrStderr(),
	})
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) && verr.Field != "" {
			return nil, clierrors.InvalidConfigValue(err)
		}
		return nil, clierrors.ConfigParseError(configSourceName(), err)
	}

	if repoFlag != "" {
		cfg.RepoPath = repoFlag
	}
	return cfg, nil
}

func configSourceName() string {
	if configPath != "" {
		return configPath
	}
	return config.ProjectConfigYAML
}

// history is an opened repository and the memoizing Source built on it.
type history struct {
	repo     *git.Repo
	provider git.Provider
	skip     bool
	source   *git.Source
}

// refresh drops memoized lookups so the next read sees moved refs.
func (h *history) refresh() {
	h.source = git.NewSource(h.provider)
	h.source.SkipMergeCommits = h.skip
}

// Close releases the repository, removing any temporary clone.
func (h *history) Close() error {
	return h.repo.Close()
}

// openHistory opens the configured repository with the configured backend.
func openHistory(ctx context.Context, cfg *config.Configuration) (*history, error) {
	repo, err := git.Open(ctx, git.OpenOptions{
		Path:                   cfg.RepoPath,
		AllowBareCloneFallback: cfg.AllowBareCloneFallback,
		GitBinary:              cfg.GitBinary,
	})
	if err != nil {
		return nil, clierrors.NotARepository(cfg.RepoPath, err)
	}

	provider, err := repo.Provider(cfg.Backend)
	if err != nil {
		_ = repo.Close()
		return nil, clierrors.InvalidConfigValue(err)
	}

	h := &history{repo: repo, provider: provider, skip: cfg.SkipMergeCommits()}
	h.refresh()
	return h, nil
}

// newRenderer builds a renderer over h with the configured filter rules.
func newRenderer(h *history, cfg *config.Configuration) *changelog.Renderer {
	r := changelog.NewRenderer(h.source)
	r.Filter.DropSelfVersionLine = cfg.DropSelfVersionLine
	r.Filter.SubjectMerges = !cfg.SkipMergeCommits()
	r.Now = now
	return r
}

// historyError turns a failure while reading history into a CLIError that
// keeps the git sentinel for ExitCode.
func historyError(cfg *config.Configuration, err error) error {
	switch {
	case errors.Is(err, git.ErrUnresolvableRef):
		return clierrors.UnresolvableRef(err)
	case errors.Is(err, git.ErrSourceUnavailable):
		return clierrors.SourceUnavailable(cfg.Backend, err)
	default:
		return err
	}
}
