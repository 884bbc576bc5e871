// Package cli implements the taglog command line: changelog generation from
// git tag history, a watch mode, npm manifest version bumps and config
// inspection.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	clierrors "github.com/ariel-frischer/taglog/internal/errors"
	"github.com/ariel-frischer/taglog/internal/git"
)

// Command groups shown in help output.
const (
	GroupChangelog     = "changelog"
	GroupProject       = "project"
	GroupConfiguration = "configuration"
)

var (
	configPath string
	repoFlag   string
	debugFlag  bool
)

// now supplies the date of untagged releases.
var now = time.Now

var rootCmd = &cobra.Command{
	Use:   "taglog",
	Short: "Generate changelogs from git tag history",
	Long: `taglog reconstructs a project's release history from its git tags and
writes it as a changelog: one section per release, listing the commits made
since the previous tag. Merge commits, version bumps and changelog updates
are filtered out.

Configuration is read from ~/.config/taglog/config.yml, then .taglog.yml
(or .taglog.json) in the project, then TAGLOG_* environment variables.`,
	Example: `  # Regenerate CHANGES.md
  taglog changelog

  # Include the commits since the last tag as release 1.4.0
  taglog changelog --version 1.4.0

  # Fail CI when CHANGES.md is out of date
  taglog changelog --check

  # Bump package.json and print name@version
  taglog manifest set 1.4.0`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugFlag {
			git.SetDebugLogger(debugLogger(cmd.ErrOrStderr()))
		}
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupChangelog, Title: "Changelog:"},
		&cobra.Group{ID: GroupProject, Title: "Project:"},
		&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"},
	)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (replaces .taglog.yml discovery)")
	rootCmd.PersistentFlags().StringVarP(&repoFlag, "repo", "C", "", "Repository path or clone URL (overrides repo_path)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Print git commands and history lookups to stderr")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine(),
			fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()))
	})
}

// debugLogger writes "[debug] ..." lines to w.
func debugLogger(w io.Writer) func(format string, args ...any) {
	return func(format string, args ...any) {
		fmt.Fprintf(w, "[debug] "+format+"\n", args...)
	}
}

// Execute runs the root command and prints any error. The returned error
// carries the exit code; see ExitCode.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		reportError(os.Stderr, err)
	}
	return err
}

// reportError prints err unless it is a bare exit code.
func reportError(w io.Writer, err error) {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		clierrors.FprintError(w, cliErr)
		return
	}
	fmt.Fprint(w, clierrors.FormatSimpleError(err, clierrors.Runtime))
}

// argsBetween is cobra.RangeArgs reporting an argument error.
func argsBetween(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.RangeArgs(min, max)(cmd, args); err != nil {
			return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine(),
				fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()))
		}
		return nil
	}
}
