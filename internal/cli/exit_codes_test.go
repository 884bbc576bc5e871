package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	clierrors "github.com/ariel-frischer/taglog/internal/errors"
	"github.com/ariel-frischer/taglog/internal/git"
)

func TestExitCode(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"nil": {
			err:  nil,
			want: ExitSuccess,
		},
		"exit error": {
			err:  NewExitError(ExitStale),
			want: ExitStale,
		},
		"wrapped exit error": {
			err:  fmt.Errorf("checking: %w", NewExitError(ExitStale)),
			want: ExitStale,
		},
		"unresolvable ref": {
			err:  clierrors.UnresolvableRef(fmt.Errorf("%w: %q", git.ErrUnresolvableRef, "v9")),
			want: ExitUnresolvableRef,
		},
		"source unavailable": {
			err:  clierrors.SourceUnavailable("gitcli", fmt.Errorf("%w: exec: git not found", git.ErrSourceUnavailable)),
			want: ExitSourceUnavailable,
		},
		"not a repository": {
			err:  clierrors.NotARepository("/tmp/x", fmt.Errorf("%w: no .git", git.ErrSourceUnavailable)),
			want: ExitSourceUnavailable,
		},
		"argument error": {
			err:  clierrors.InvalidFormat("html"),
			want: ExitInvalidArguments,
		},
		"config error": {
			err:  clierrors.InvalidConfigValue(errors.New("backend must be one of: gitcli, native")),
			want: ExitFailure,
		},
		"plain error": {
			err:  errors.New("boom"),
			want: ExitFailure,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestExitError_Message(t *testing.T) {
	assert.Equal(t, "exit code 2", NewExitError(ExitStale).Error())
}
