package cli

import (
	"errors"
	"fmt"

	clierrors "github.com/ariel-frischer/taglog/internal/errors"
	"github.com/ariel-frischer/taglog/internal/git"
)

// Exit codes for the taglog CLI
// These codes support programmatic composition and CI/CD integration
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailure indicates a generic failure
	ExitFailure = 1

	// ExitStale indicates changelog --check found the file out of date
	ExitStale = 2

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3

	// ExitSourceUnavailable indicates the repository or history backend could not be read
	ExitSourceUnavailable = 4

	// ExitUnresolvableRef indicates a tag or ref that does not name a commit
	ExitUnresolvableRef = 5
)

// exitError is a custom error type that carries an exit code.
// It is reported silently: the command has already printed what went wrong.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// NewExitError returns an error that makes the process exit with code.
func NewExitError(code int) error {
	return &exitError{code: code}
}

// ExitCode returns the exit code from an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	switch {
	case errors.Is(err, git.ErrUnresolvableRef):
		return ExitUnresolvableRef
	case errors.Is(err, git.ErrSourceUnavailable):
		return ExitSourceUnavailable
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil && cliErr.Category == clierrors.Argument {
		return ExitInvalidArguments
	}
	return ExitFailure
}
