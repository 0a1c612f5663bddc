package config

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of filesystem events one save produces
// (truncate, content write, rename) into a single reload attempt.
const reloadDebounce = 100 * time.Millisecond

// Watch monitors path and calls onChange with the freshly loaded Config each
// time the file changes on disk. It blocks until ctx is cancelled.
//
// A reload that fails (unreadable file, invalid YAML) is logged and skipped;
// the previous configuration stays active and onChange is not called. A
// missing or empty file is skipped the same way: editors save with
// truncate-then-write, and loading during that gap would hand back pure
// defaults instead of the settings about to land.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("config: watching", "path", path)

	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				pending = time.After(reloadDebounce)
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				// Atomic saves replace the inode, so the watch is re-added
				// before the new file's content is read.
				_ = watcher.Add(path)
				pending = time.After(reloadDebounce)
			}

		case <-pending:
			pending = nil

			if info, err := os.Stat(path); err != nil || info.Size() == 0 {
				// Mid-save gap; the content write re-arms the timer.
				slog.Warn("config: file missing or empty, keeping previous", "path", path)
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed, keeping previous", "path", path, "err", err)
				continue
			}
			_ = watcher.Add(path)

			slog.Info("config: reloaded", "path", path,
				"default_threshold", cfg.Tracker.DefaultThreshold)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
