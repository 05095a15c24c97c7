package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchEditor reloads the editor file at path whenever it changes and
// passes each valid result to onChange. Invalid edits are logged and
// skipped. It returns once the watch is set up; the watch ends with ctx.
func WatchEditor(ctx context.Context, path string, onChange func(*Editor)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch editor config: %w", err)
	}
	// Editors often save by renaming a temp file over the original, so
	// watch the directory and filter by name.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch editor config: %w", err)
	}
	name := filepath.Clean(path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != name || !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}
				cfg, err := LoadEditor(path)
				if err != nil {
					slog.Warn("editor config reload skipped", "path", path, "error", err)
					continue
				}
				slog.Info("editor config reloaded", "path", path)
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("editor config watcher", "error", err)
			}
		}
	}()
	return nil
}
