// Package watch reports changes to a repository's refs so a changelog can be
// regenerated when tags move or HEAD advances.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for watch operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// Paths returns the directories under gitDir whose changes can alter tag
// history: gitDir itself (HEAD, packed-refs) and every directory below
// refs/tags and refs/heads. fsnotify does not recurse, so nested ref
// directories such as refs/heads/feature are listed individually.
func Paths(gitDir string) ([]string, error) {
	paths := []string{gitDir}
	for _, sub := range []string{"tags", "heads"} {
		root := filepath.Join(gitDir, "refs", sub)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", root, err)
		}
	}
	return paths, nil
}

// Run watches paths and calls fn after each burst of changes, once they have
// been quiet for delay. fn runs on the calling goroutine, so calls never
// overlap. Run returns when ctx is done.
func Run(ctx context.Context, paths []string, delay time.Duration, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer w.Close()

	for _, path := range paths {
		logDebug("[watch] adding %s", path)
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}

	pending := make(chan struct{}, 1)
	d := NewDebouncer(delay, func() {
		select {
		case pending <- struct{}{}:
		default:
		}
	})
	defer d.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pending:
			fn()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			logDebug("[watch] %s %s", ev.Op, ev.Name)
			if ev.Has(fsnotify.Create) {
				addIfDir(w, ev.Name)
			}
			d.Trigger()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logDebug("[watch] fsnotify error: %v", err)
		}
	}
}

// relevant drops lock files git writes while updating a ref, and events that
// do not change content.
func relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(ev.Name))
	return ext != ".lock"
}

// addIfDir starts watching a newly created ref directory.
func addIfDir(w *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.Add(path); err != nil {
		logDebug("[watch] cannot watch %s: %v", path, err)
	}
}
