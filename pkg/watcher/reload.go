package watcher

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Default debounce timings for spreadsheet saves
const (
	DefaultQuietPeriod = 500 * time.Millisecond
	DefaultMaxWait     = 5 * time.Second
)

// SyncFunc reloads the directory, reason is used for logging and status
type SyncFunc func(ctx context.Context, reason string) error

// Decision describes what a change event asks of the loader
type Decision struct {
	Reload bool
	Reason string
	Paths  []string
}

// Decide determines whether a change should trigger a reload. A removed
// file is not a reason to drop the directory; the current snapshot stays
// until the file comes back.
func Decide(event ChangeEvent) Decision {
	d := Decision{Paths: event.Paths}
	switch event.Type {
	case ChangeTypeWrite:
		d.Reload = true
		d.Reason = "file changed: " + strings.Join(event.Paths, ", ")
	case ChangeTypeRemove:
		d.Reason = "file removed: " + strings.Join(event.Paths, ", ")
	default:
		d.Reason = fmt.Sprintf("ignored %s", event.Type)
	}
	return d
}

// Run consumes debounced events and calls sync for every reload decision.
// It returns when events is closed or ctx is done.
func Run(ctx context.Context, events <-chan ChangeEvent, sync SyncFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			d := Decide(event)
			if !d.Reload {
				log.Warn("spreadsheet change ignored, keeping current snapshot", "reason", d.Reason)
				continue
			}
			log.Info("spreadsheet changed, reloading", "paths", d.Paths)
			if err := sync(ctx, d.Reason); err != nil {
				log.Error("reload after file change failed", "error", err)
			}
		}
	}
}

// Watch wires a FileWatcher and a Debouncer for path to sync. It returns
// once watching has started; the pipeline stops with ctx.
func Watch(ctx context.Context, path string, quietPeriod, maxWait time.Duration, sync SyncFunc) error {
	fw, err := NewFileWatcher(path)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)
	go Run(ctx, debouncer.Output(), sync)
	return nil
}
