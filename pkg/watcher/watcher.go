// Package watcher reloads the directory when its spreadsheet changes on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/org-directory/pkg/logging"
)

var log = logging.New("watcher")

// batchWindow groups the burst of fsnotify events a single save produces
const batchWindow = 100 * time.Millisecond

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeWrite  ChangeType = iota // Written or (re)created
	ChangeTypeRemove                   // Removed or renamed away
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeWrite:
		return "write"
	case ChangeTypeRemove:
		return "remove"
	}
	return fmt.Sprintf("ChangeType(%d)", int(t))
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches a single spreadsheet file. The parent directory is
// watched so that editors replacing the file atomically are still seen.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan ChangeEvent
	once    sync.Once
}

// NewFileWatcher creates a watcher for the file at path
func NewFileWatcher(path string) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		path:    filepath.Clean(abs),
		events:  make(chan ChangeEvent, 16),
	}, nil
}

// Path returns the watched file
func (fw *FileWatcher) Path() string {
	return fw.path
}

// Start begins watching. Events stop and the channel closes when ctx is done.
func (fw *FileWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		fw.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	log.Info("watching spreadsheet", "path", fw.path)
	go fw.processEvents(ctx)
	return nil
}

// processEvents filters events for the watched file and batches them by type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer fw.once.Do(func() {
		fw.watcher.Close()
		close(fw.events)
	})

	var writes, removes []string

	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	send := func(t ChangeType, paths []string) bool {
		select {
		case fw.events <- ChangeEvent{Type: t, Paths: paths, Timestamp: time.Now()}:
			return true
		case <-ctx.Done():
			return false
		}
	}

	flush := func() bool {
		// A remove followed by a write is an atomic replace, report the write last
		if len(removes) > 0 && !send(ChangeTypeRemove, removes) {
			return false
		}
		if len(writes) > 0 && !send(ChangeTypeWrite, writes) {
			return false
		}
		writes, removes = nil, nil
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}

			log.Log(ctx, logging.LevelTrace, "fsnotify event", "path", event.Name, "op", event.Op.String())
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				writes = append(writes, event.Name)
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				removes = append(removes, event.Name)
			default:
				continue
			}
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			if !flush() {
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop releases the fsnotify watcher. Prefer cancelling the Start context.
func (fw *FileWatcher) Stop() error {
	return fw.watcher.Close()
}
