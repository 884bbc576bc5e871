package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/taglog/internal/changelog"
	"github.com/ariel-frischer/taglog/internal/config"
	clierrors "github.com/ariel-frischer/taglog/internal/errors"
	"github.com/ariel-frischer/taglog/internal/output"
	"github.com/ariel-frischer/taglog/internal/watch"
)

// watchOptions are the flags of 'taglog watch'.
type watchOptions struct {
	File    string
	Version string
	Format  string
}

var watchFlags watchOptions

var watchCmd = &cobra.Command{
	Use:   "watch [FILE]",
	Short: "Regenerate the changelog whenever tags or HEAD change",
	Long: `Regenerate the changelog whenever tags or HEAD change.

The changelog is written once at start, then again after every burst of ref
updates (new tags, commits, checkouts) once they have been quiet for
watch_debounce. The file is only rewritten when its content changes.
Stop with Ctrl-C.`,
	Example: `  # Keep CHANGES.md current while working
  taglog watch

  # Track the upcoming release as well
  taglog watch --version 2.1.0`,
	Args: argsBetween(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := watchFlags
		if len(args) == 1 {
			opts.File = args[0]
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, cmd, cfg, opts)
	},
}

func init() {
	watchCmd.GroupID = GroupChangelog
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.Version, "version", "v", "", "Version of the upcoming release made of commits after the last tag")
	watchCmd.Flags().StringVar(&watchFlags.Format, "format", changelog.FormatMarkdown, "Output format: markdown | yaml")
}

func (o watchOptions) validate() error {
	switch o.Format {
	case changelog.FormatMarkdown, changelog.FormatYAML:
	default:
		return clierrors.InvalidFormat(o.Format)
	}
	if o.Version != "" && changelog.CleanVersion(o.Version) == "" {
		return clierrors.InvalidVersion(o.Version)
	}
	if o.File == "-" {
		return clierrors.InvalidFlagCombination("watch -", "watch writes a file; use 'taglog changelog --stdout' to print")
	}
	return nil
}

// runWatch writes the changelog, then rewrites it after ref changes until ctx
// is done. Failed regenerations are reported and the watch continues.
func runWatch(ctx context.Context, cmd *cobra.Command, cfg *config.Configuration, opts watchOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if opts.File == "" {
		opts.File = cfg.OutputFile
	}
	if debugFlag {
		watch.SetDebugLogger(debugLogger(cmd.ErrOrStderr()))
	}

	h, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	w := &changelogWriter{h: h, cfg: cfg, opts: opts}
	changed, n, err := w.regenerate()
	if err != nil {
		return err
	}
	reportRegenerated(cmd, opts.File, changed, n)

	paths, err := watch.Paths(h.repo.GitDir())
	if err != nil {
		return clierrors.SourceUnavailable(cfg.Backend, err)
	}
	output.PrintEvent(cmd.ErrOrStderr(), fmt.Sprintf("Watching %s for tag changes (Ctrl-C to stop)", h.repo.GitDir()))

	err = watch.Run(ctx, paths, cfg.WatchDebounce, func() {
		output.PrintEvent(cmd.ErrOrStderr(), "refs changed, regenerating")
		changed, n, err := w.regenerate()
		if err != nil {
			reportError(cmd.ErrOrStderr(), err)
			return
		}
		reportRegenerated(cmd, opts.File, changed, n)
	})
	if err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Runtime, "watching "+h.repo.GitDir())
	}
	return nil
}

// changelogWriter rebuilds one changelog file from fresh history reads.
type changelogWriter struct {
	h    *history
	cfg  *config.Configuration
	opts watchOptions
	last string
}

// regenerate rebuilds the document and writes it when it differs from the
// last write. It reports whether the file changed and the release count.
func (w *changelogWriter) regenerate() (bool, int, error) {
	w.h.refresh()
	log, err := newRenderer(w.h, w.cfg).Build(w.opts.Version)
	if err != nil {
		return false, 0, historyError(w.cfg, err)
	}
	doc, err := log.Render(w.opts.Format)
	if err != nil {
		return false, 0, err
	}
	if w.last == "" {
		if onDisk, err := os.ReadFile(w.opts.File); err == nil {
			w.last = string(onDisk)
		}
	}
	if doc == w.last {
		return false, len(log.Releases), nil
	}
	if err := os.WriteFile(w.opts.File, []byte(doc), 0o644); err != nil {
		return false, 0, clierrors.FileNotWritable(w.opts.File, err)
	}
	w.last = doc
	return true, len(log.Releases), nil
}

func reportRegenerated(cmd *cobra.Command, file string, changed bool, releases int) {
	if changed {
		output.PrintSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Wrote %s (%s)", file, releaseCount(releases)))
		return
	}
	output.PrintEvent(cmd.ErrOrStderr(), file+" unchanged")
}
