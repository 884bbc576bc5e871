package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/taglog/internal/changelog"
	"github.com/ariel-frischer/taglog/internal/config"
	clierrors "github.com/ariel-frischer/taglog/internal/errors"
	"github.com/ariel-frischer/taglog/internal/output"
)

// changelogOptions are the flags of 'taglog changelog'.
type changelogOptions struct {
	File    string
	Version string
	Summary bool
	Check   bool
	Format  string
	Stdout  bool
}

var changelogFlags changelogOptions

var changelogCmd = &cobra.Command{
	Use:   "changelog [FILE]",
	Short: "Write the changelog reconstructed from git tags",
	Long: `Write the changelog reconstructed from git tags.

Every tag reachable from HEAD becomes a release, oldest first. The first
release reads "First release!"; every later release lists the commits made
since the previous tag. With --version, commits after the last tag are listed
as that upcoming release.

FILE defaults to output_file (CHANGES.md). Use "-" or --stdout to print
instead. The file is only written once the whole document is built.`,
	Example: `  # Regenerate CHANGES.md
  taglog changelog

  # Preview the next release
  taglog changelog --version 2.1.0 --stdout

  # Release notes for the next release only
  taglog changelog --summary --version 2.1.0

  # CI: exit 2 with a diff when CHANGES.md is stale
  taglog changelog --check

  # Machine-readable history
  taglog changelog --format yaml --stdout`,
	Args: argsBetween(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := changelogFlags
		if len(args) == 1 {
			opts.File = args[0]
		}
		return runChangelog(cmd, cfg, opts)
	},
}

func init() {
	changelogCmd.GroupID = GroupChangelog
	rootCmd.AddCommand(changelogCmd)

	changelogCmd.Flags().StringVarP(&changelogFlags.Version, "version", "v", "", "Version of the upcoming release made of commits after the last tag")
	changelogCmd.Flags().BoolVarP(&changelogFlags.Summary, "summary", "s", false, "Print only the changes since the last tag")
	changelogCmd.Flags().BoolVar(&changelogFlags.Check, "check", false, "Compare FILE with the generated changelog and exit 2 when it differs")
	changelogCmd.Flags().StringVar(&changelogFlags.Format, "format", changelog.FormatMarkdown, "Output format: markdown | yaml")
	changelogCmd.Flags().BoolVar(&changelogFlags.Stdout, "stdout", false, "Print to stdout instead of writing FILE")
}

// validate rejects flag combinations that have no meaning.
func (o changelogOptions) validate() error {
	switch o.Format {
	case changelog.FormatMarkdown, changelog.FormatYAML:
	default:
		return clierrors.InvalidFormat(o.Format)
	}
	if o.Version != "" && changelog.CleanVersion(o.Version) == "" {
		return clierrors.InvalidVersion(o.Version)
	}
	if o.Summary && o.Check {
		return clierrors.InvalidFlagCombination("--summary --check", "--summary prints to stdout and has nothing to check")
	}
	if o.Summary && o.Format != changelog.FormatMarkdown {
		return clierrors.InvalidFlagCombination("--summary --format "+o.Format, "--summary always prints plain text")
	}
	if o.Check && o.Stdout {
		return clierrors.InvalidFlagCombination("--check --stdout", "--check never writes; drop --stdout")
	}
	return nil
}

func runChangelog(cmd *cobra.Command, cfg *config.Configuration, opts changelogOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if opts.File == "" {
		opts.File = cfg.OutputFile
	}

	h, err := openHistory(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	sp := output.StartSpinner(cmd.ErrOrStderr(), spinnerCapabilities(), "Reading tag history")
	r := newRenderer(h, cfg)

	if opts.Summary {
		text, err := r.Latest(opts.Version)
		sp.Stop()
		if err != nil {
			return historyError(cfg, err)
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}

	log, err := r.Build(opts.Version)
	sp.Stop()
	if err != nil {
		return historyError(cfg, err)
	}
	doc, err := log.Render(opts.Format)
	if err != nil {
		return err
	}

	switch {
	case opts.Check:
		return checkChangelog(cmd, opts.File, doc)
	case opts.Stdout || opts.File == "-":
		fmt.Fprint(cmd.OutOrStdout(), doc)
		return nil
	default:
		if err := os.WriteFile(opts.File, []byte(doc), 0o644); err != nil {
			return clierrors.FileNotWritable(opts.File, err)
		}
		output.PrintSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Wrote %s (%s)", opts.File, releaseCount(len(log.Releases))))
		return nil
	}
}

// checkChangelog compares path with doc and reports a stale file with a diff.
// A missing file counts as empty.
func checkChangelog(cmd *cobra.Command, path, doc string) error {
	onDisk, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return clierrors.WrapWithMessage(err, clierrors.Runtime, "reading "+path)
	}

	diff, err := changelog.Diff(path, string(onDisk), doc)
	if err != nil {
		return err
	}
	if diff == "" {
		output.PrintSuccess(cmd.OutOrStdout(), path+" is up to date")
		return nil
	}

	output.PrintWarning(cmd.OutOrStdout(), path+" is out of date")
	fmt.Fprintln(cmd.OutOrStdout())
	output.PrintDiff(cmd.OutOrStdout(), diff)
	fmt.Fprintf(cmd.OutOrStdout(), "\nTo fix, run:\n  taglog changelog %s\n", path)
	return NewExitError(ExitStale)
}

func releaseCount(n int) string {
	if n == 1 {
		return "1 release"
	}
	return fmt.Sprintf("%d releases", n)
}

// spinnerCapabilities disables the spinner in debug mode, where it would
// interleave with the debug lines on stderr.
func spinnerCapabilities() output.TerminalCapabilities {
	if debugFlag {
		return output.TerminalCapabilities{}
	}
	return output.DetectTerminalCapabilities(os.Stderr)
}
