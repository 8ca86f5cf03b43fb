package sheets

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch watches local-file sources and calls onChange (debounced) after any of
// them is written, created or replaced, until ctx is cancelled. HTTP sources
// are ignored. Parent directories are watched so editors that save by rename
// are still seen.
func Watch(ctx context.Context, sources []string, debounce time.Duration, logger *slog.Logger, onChange func()) error {
	files := make(map[string]struct{})
	dirs := make(map[string]struct{})
	for _, s := range sources {
		if !IsLocal(s) {
			continue
		}
		abs, err := filepath.Abs(LocalPath(s))
		if err != nil {
			return err
		}
		files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	if len(files) == 0 {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for d := range dirs {
		if err := w.Add(d); err != nil {
			return err
		}
	}
	logger.Info("watcher: started", slog.Int("files", len(files)))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			timer = nil
			fire = nil
			onChange()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if _, watched := files[filepath.Clean(ev.Name)]; !watched {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("watcher: source changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
