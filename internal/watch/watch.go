// Package watch re-runs a callback when project configuration files
// change, backing 'tablevet run --watch'.
package watch

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of filesystem events (editors often
// write several) into one callback.
const DefaultDebounce = 500 * time.Millisecond

// Dirs watches the given directories and invokes fn after YAML files
// change, debounced. Missing directories are skipped. Blocks until ctx
// is canceled.
func Dirs(ctx context.Context, dirs []string, debounce time.Duration, fn func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("nothing to watch: none of the directories exist")
	}

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			fn()
		case <-watcher.Errors:
			// Keep watching.
		}
	}
}

// relevant reports whether an event should trigger a re-run: a write,
// create, rename, or removal of a YAML file.
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	name := event.Name
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
