package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lotas/autopin/internal/applog"
)

const watchDebounce = 250 * time.Millisecond

// Watch follows writes to the database file made by other processes (the
// CLI, the rules view, a second daemon) and turns them into change
// notifications via Refresh. It blocks until ctx is cancelled.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	applog.Info("settings.watch", "dir", dir)

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !s.isDatabaseFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(watchDebounce)
			}
			timerCh = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			applog.Error("settings.watch", err)

		case <-timerCh:
			timerCh = nil
			if err := s.Refresh(ctx); err != nil {
				applog.Error("settings.refresh", err)
			}
		}
	}
}

// isDatabaseFile matches the database and its -wal/-journal companions.
// The -shm file is left out: readers touch it, so Refresh would wake
// itself up.
func (s *Store) isDatabaseFile(name string) bool {
	base := filepath.Base(s.path)
	switch filepath.Base(name) {
	case base, base + "-wal", base + "-journal":
		return true
	}
	return false
}
