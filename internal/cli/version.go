package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/taglog/internal/build"
	"github.com/ariel-frischer/taglog/internal/output"
)

var versionPlain bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Long:  "Display version, commit, build date, and Go version information for taglog",
	Example: `  # Show version info
  taglog version

  # Plain output (for scripts)
  taglog version --plain`,
	Args: argsBetween(0, 0),
	Run: func(cmd *cobra.Command, args []string) {
		if versionPlain {
			printPlainVersion(cmd.OutOrStdout())
			return
		}
		printPrettyVersion(cmd.OutOrStdout())
	},
}

func init() {
	versionCmd.GroupID = GroupConfiguration
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionPlain, "plain", false, "Plain output without formatting")
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(w io.Writer) {
	fmt.Fprintf(w, "taglog %s\n", build.Version)
	fmt.Fprintf(w, "commit: %s\n", build.Commit)
	fmt.Fprintf(w, "built: %s\n", build.BuildDate)
	fmt.Fprintf(w, "go: %s\n", runtime.Version())
	fmt.Fprintf(w, "platform: %s\n", build.Platform())
}

// printPrettyVersion prints the build information in a labeled box.
func printPrettyVersion(w io.Writer) {
	dim := color.New(color.Faint).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	info := []struct {
		label string
		value string
	}{
		{"Version", build.Version},
		{"Commit", build.ShortCommit()},
		{"Built", build.BuildDate},
		{"Go", runtime.Version()},
		{"Platform", build.Platform()},
	}

	boxWidth := 44
	if tw := output.GetTerminalWidth(); tw < 50 {
		boxWidth = tw - 6
	}
	contentWidth := boxWidth - 4

	fmt.Fprintln(w)
	fmt.Fprintln(w, dim("  taglog: changelogs from git tag history"))
	fmt.Fprintln(w, "┌"+strings.Repeat("─", boxWidth-2)+"┐")
	for _, item := range info {
		line := fmt.Sprintf("  %s    %s", yellow(fmt.Sprintf("%10s", item.label)), white(item.value))
		if lineLen := 10 + 4 + len(item.value) + 2; lineLen < contentWidth {
			line += strings.Repeat(" ", contentWidth-lineLen)
		}
		fmt.Fprintln(w, "│ "+line+" │")
	}
	fmt.Fprintln(w, "└"+strings.Repeat("─", boxWidth-2)+"┘")
	fmt.Fprintln(w)
}
