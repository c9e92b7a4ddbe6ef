package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of write events (editors often write a
// temp file then rename) into one reload.
const watchDebounce = 200 * time.Millisecond

// Watcher invokes a callback when the registry document changes on disk,
// so long-running commands pick up hand-edits without restarting.
type Watcher struct {
	fsw  *fsnotify.Watcher
	done chan struct{}
}

// Watch starts watching the store's document. Returns an error when the
// watcher cannot be created or the directory does not exist; callers fall
// back to explicit reloads in that case.
func (s *Store) Watch(onChange func()) (*Watcher, error) {
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("registry dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory, not the file: atomic saves rename over the path,
	// which would drop a file-level watch.
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{fsw: fsw, done: make(chan struct{})}
	go w.run(filepath.Base(s.path), onChange)
	return w, nil
}

func (w *Watcher) run(base string, onChange func()) {
	debounce := time.NewTimer(watchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !debounce.Stop() && pending {
				<-debounce.C
			}
			debounce.Reset(watchDebounce)
			pending = true

		case <-debounce.C:
			pending = false
			onChange()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "warning: registry watcher: %v\n", err)

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() {
	close(w.done)
	_ = w.fsw.Close()
}
