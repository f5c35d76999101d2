package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/cfgdot/pkg/host"
)

// reloadDelay coalesces the burst of events an editor save produces.
const reloadDelay = 100 * time.Millisecond

// exportWatcher reloads a function export whenever its file changes.
type exportWatcher struct {
	path   string
	load   func(path string) (*host.Function, error)
	apply  func(fn *host.Function)
	failed func(err error)
	delay  time.Duration
}

// run watches until ctx is done. The parent directory is watched rather
// than the file so that editors which save by rename keep triggering.
func (w *exportWatcher) run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	delay := w.delay
	if delay <= 0 {
		delay = reloadDelay
	}
	debounce := time.NewTimer(delay)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			debounce.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending = true
			debounce.Reset(delay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.fail(err)

		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			fn, err := w.load(w.path)
			if err != nil {
				w.fail(err)
				continue
			}
			w.apply(fn)
		}
	}
}

func (w *exportWatcher) fail(err error) {
	if w.failed != nil {
		w.failed(err)
	}
}
