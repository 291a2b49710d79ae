package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// StateChange names which persisted key changed on disk.
type StateChange int

const (
	ChangeEvents StateChange = iota
	ChangeSettings
)

// Watch reports changes to the state files under dir until ctx is
// cancelled. It is meant for the OS filesystem only; the directory is
// created if missing. onChange runs on the watcher goroutine.
func Watch(ctx context.Context, dir string, onChange func(StateChange)) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating state watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				switch filepath.Base(event.Name) {
				case eventsFileName:
					onChange(ChangeEvents)
				case settingsFileName:
					onChange(ChangeSettings)
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}
