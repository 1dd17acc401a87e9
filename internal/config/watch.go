package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch reloads path whenever it changes and passes the result to onChange.
// Bursts of writes within debounce collapse into one reload. Invalid files
// are logged and skipped. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(Config), log *logrus.Entry) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors replace files, so watch the directory rather than the file.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		cfg, err := Load(path)
		if err != nil {
			log.WithError(err).Warn("ignoring invalid config")
			return
		}
		log.WithField("path", path).Info("config reloaded")
		onChange(cfg)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	target := filepath.Clean(path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, reload)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("config watcher error")
		case <-ctx.Done():
			return nil
		}
	}
}
