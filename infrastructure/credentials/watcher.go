package credentials

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the credential store when the file changes on disk,
// so out-of-band edits (password resets, revoked users) take effect
// without a restart.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	stopCh  chan struct{}
}

// NewWatcher creates a watcher for the store's credential file.
func NewWatcher(store *Store, logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	// Watch the directory, not the file: the atomic save replaces the
	// file by rename, which drops a direct file watch.
	if err := fsWatcher.Add(filepath.Dir(store.path)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch credentials dir: %w", err)
	}

	w := &Watcher{
		store:   store,
		watcher: fsWatcher,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	// Small debounce: editors and the atomic save both emit bursts of
	// events for one logical change.
	var pending <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.store.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(200 * time.Millisecond)

		case <-pending:
			pending = nil
			if err := w.store.Reload(); err != nil {
				w.logger.Warn("credential file changed but reload failed; keeping previous state",
					zap.Error(err),
				)
				continue
			}
			w.logger.Info("credential file reloaded",
				zap.Int("users", len(w.store.Usernames())),
			)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("credential watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}
