package changelog

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified diff from the document on disk to the freshly
// generated one. The result is empty when they match.
func Diff(path, onDisk, generated string) (string, error) {
	if onDisk == generated {
		return "", nil
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(onDisk),
		B:        difflib.SplitLines(generated),
		FromFile: path,
		ToFile:   path + " (generated)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("diffing %s: %w", path, err)
	}
	return text, nil
}
