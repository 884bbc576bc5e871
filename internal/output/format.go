// Package output provides terminal output formatting utilities for the taglog CLI.
// This package is designed to have minimal dependencies to avoid import cycles.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// GetTerminalWidth returns the terminal width, defaulting to 80 if unavailable.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// PrintSuccess prints a green checkmark followed by a cyan message.
func PrintSuccess(out io.Writer, message string) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", green("✓"), cyan(message))
}

// PrintWarning prints a yellow warning line.
func PrintWarning(out io.Writer, message string) {
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", yellow("!"), message)
}

// PrintEvent prints a watch event (e.g., "→ refs changed, regenerating").
// Uses a magenta arrow and dim text.
func PrintEvent(out io.Writer, message string) {
	magenta := color.New(color.FgMagenta).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", magenta("→"), dim(message))
}

// PrintSeparator prints a dim rule with a centered label across the terminal.
func PrintSeparator(out io.Writer, label string) {
	termWidth := GetTerminalWidth()
	magenta := color.New(color.FgMagenta, color.Faint).SprintFunc()

	label = " " + label + " "
	lineLen := (termWidth - len(label)) / 2
	if lineLen < 3 {
		lineLen = 3
	}

	line := strings.Repeat("─", lineLen)
	fmt.Fprintf(out, "%s%s%s\n", magenta(line), magenta(label), magenta(line))
}

// PrintDiff prints a unified diff with removed lines in red, added lines in
// green and hunk headers in cyan.
func PrintDiff(out io.Writer, diff string) {
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprint(out, line)
		case strings.HasPrefix(line, "@@"):
			fmt.Fprint(out, cyan(line))
		case strings.HasPrefix(line, "+"):
			fmt.Fprint(out, green(line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprint(out, red(line))
		default:
			fmt.Fprint(out, line)
		}
	}
}
