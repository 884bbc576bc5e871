package output

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows activity while history is read. On a non-terminal writer it
// prints nothing at all, so redirected output stays clean.
type Spinner struct {
	s       *spinner.Spinner
	w       io.Writer
	symbols ProgressSymbols
}

// StartSpinner starts a spinner with message on w. The spinner is disabled
// when caps reports a non-terminal.
func StartSpinner(w io.Writer, caps TerminalCapabilities, message string) *Spinner {
	symbols := SelectSymbols(caps)
	sp := &Spinner{w: w, symbols: symbols}
	if !caps.IsTTY {
		return sp
	}

	sp.s = spinner.New(spinner.CharSets[symbols.SpinnerSet], 100*time.Millisecond,
		spinner.WithWriter(w),
		spinner.WithHiddenCursor(true),
	)
	sp.s.Suffix = " " + message
	sp.s.Start()
	return sp
}

// Stop clears the spinner line.
func (sp *Spinner) Stop() {
	if sp == nil || sp.s == nil {
		return
	}
	sp.s.Stop()
}

// Success stops the spinner and leaves a checkmarked message in its place.
func (sp *Spinner) Success(message string) {
	sp.finish(sp.symbols.Checkmark, message)
}

// Fail stops the spinner and leaves a failure message in its place.
func (sp *Spinner) Fail(message string) {
	sp.finish(sp.symbols.Failure, message)
}

func (sp *Spinner) finish(symbol, message string) {
	if sp == nil || sp.s == nil {
		return
	}
	sp.s.FinalMSG = fmt.Sprintf("%s %s\n", symbol, message)
	sp.s.Stop()
}
