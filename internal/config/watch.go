package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of events editors produce on save.
const reloadDebounce = 200 * time.Millisecond

// Watch reloads the config at configPath whenever it changes and passes each
// successfully loaded config to fn. Invalid edits are logged and skipped. The
// directory is watched rather than the file so atomic-rename saves are seen.
// Watch returns once the watcher is running; it stops when ctx is done.
func Watch(ctx context.Context, configPath string, fn func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	dir := filepath.Dir(configPath)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	go func() {
		defer w.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(configPath) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(reloadDebounce)
				} else {
					timer.Reset(reloadDebounce)
				}
				fire = timer.C
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("Config watcher error", "err", err)
			case <-fire:
				fire = nil
				cfg, err := LoadFrom(configPath)
				if err != nil {
					slog.Warn("Ignoring config change", "path", configPath, "err", err)
					continue
				}
				slog.Info("Config reloaded", "path", configPath)
				fn(cfg)
			}
		}
	}()
	return nil
}
