package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// DebounceDelay coalesces the burst of events editors produce on save.
const DebounceDelay = 250 * time.Millisecond

// Watch reloads the config at path whenever it changes and passes the result
// to fn. Parse errors are passed through so the caller can keep the previous
// config. The containing directory is watched so that atomic saves, which
// replace the file, are seen. Watch returns once the watcher is installed;
// it stops when ctx is done.
func Watch(ctx context.Context, path string, fn func(*Config, error)) error {
	path = filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	debounced := debounce.New(DebounceDelay)
	reload := func() {
		if ctx.Err() != nil {
			return
		}
		fn(Load(path))
	}

	go func() {
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				debounced(reload)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				fn(nil, fmt.Errorf("watch config: %w", err))
			}
		}
	}()
	return nil
}
