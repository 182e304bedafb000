// Package loader moves records from a source into the store and reports
// progress to subscribers of the directory status topic.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ritzau/org-directory/pkg/logging"
	"github.com/ritzau/org-directory/pkg/model"
	"github.com/ritzau/org-directory/pkg/pubsub"
	"github.com/ritzau/org-directory/pkg/source"
	"github.com/ritzau/org-directory/pkg/store"
)

var log = logging.New("loader")

// ErrSourceFailed is matched by errors from a source that could not be read
var ErrSourceFailed = errors.New("source failed")

// SourceError wraps a failed Load of a named source
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("loading from %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSourceFailed }

// Options configures a Loader
type Options struct {
	Fallback  source.Source    // Used by Initial when the primary fails; nil disables
	Publisher pubsub.Publisher // Receives directory status events; may be nil
}

// Loader orchestrates snapshot loads
type Loader struct {
	store     *store.Store
	primary   source.Source
	fallback  source.Source
	publisher pubsub.Publisher
	mu        sync.Mutex // Prevent concurrent loads
}

// New creates a loader reading from primary into st
func New(st *store.Store, primary source.Source, opts Options) *Loader {
	return &Loader{
		store:     st,
		primary:   primary,
		fallback:  opts.Fallback,
		publisher: opts.Publisher,
	}
}

// Primary returns the configured primary source
func (l *Loader) Primary() source.Source {
	return l.primary
}

// Initial performs the startup load. When the primary source fails the
// fallback is loaded instead and the snapshot is marked as fallback data.
func (l *Loader) Initial(ctx context.Context) (*store.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	const reason = "startup"
	snap, err := l.loadLocked(ctx, l.primary, reason, false)
	if err == nil {
		return snap, nil
	}
	if l.fallback == nil || ctx.Err() != nil {
		l.publishError(reason, err)
		return nil, err
	}

	log.Warn("primary source failed, using fallback data",
		"source", l.primary.Name(),
		"fallback", l.fallback.Name(),
		"error", err,
	)
	snap, ferr := l.loadLocked(ctx, l.fallback, reason, true)
	if ferr != nil {
		l.publishError(reason, ferr)
		return nil, fmt.Errorf("fallback after %v: %w", err, ferr)
	}
	return snap, nil
}

// Sync reloads the primary source. On failure the current snapshot stays
// in place and the error is returned.
func (l *Loader) Sync(ctx context.Context, reason string) (*store.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap, err := l.loadLocked(ctx, l.primary, reason, false)
	if err != nil {
		log.Error("sync failed, keeping current snapshot", "reason", reason, "error", err)
		l.publishError(reason, err)
		return nil, err
	}
	return snap, nil
}

// Apply replaces the snapshot with externally supplied records (uploads)
func (l *Loader) Apply(ctx context.Context, records []model.Employee, origin store.Origin) (*store.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	reason := "apply " + origin.Name
	l.publish(pubsub.StateLoading, fmt.Sprintf("Applying %d records from %s...", len(records), origin.Name), reason)
	snap, err := l.store.ReplaceSnapshot(records, origin)
	if err != nil {
		l.publishError(reason, err)
		return nil, err
	}
	l.publishReady(reason, snap)
	return snap, nil
}

// StartPeriodicSync runs Sync every interval until ctx is done.
// An interval of zero disables it.
func (l *Loader) StartPeriodicSync(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	log.Info("periodic sync enabled", "interval", interval, "source", l.primary.Name())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// Errors are logged and published by Sync
				_, _ = l.Sync(ctx, "periodic sync")
			}
		}
	}()
}

func (l *Loader) loadLocked(ctx context.Context, src source.Source, reason string, fallback bool) (*store.Snapshot, error) {
	start := time.Now()
	log.Info("loading directory", "source", src.Name(), "reason", reason)
	l.publish(pubsub.StateLoading, fmt.Sprintf("Loading directory from %s...", src.Name()), reason)

	records, err := src.Load(ctx)
	if err != nil {
		return nil, &SourceError{Source: src.Name(), Err: err}
	}
	log.Debug("source loaded", "source", src.Name(), "records", len(records), "duration", time.Since(start))

	snap, err := l.store.ReplaceSnapshot(records, store.Origin{
		Name:     src.Name(),
		Location: src.Location(),
		Fallback: fallback,
	})
	if err != nil {
		return nil, err
	}

	log.Info("directory loaded",
		"source", src.Name(),
		"employees", snap.Len(),
		"version", snap.Version,
		"duration", time.Since(start),
	)
	l.publishReady(reason, snap)
	return snap, nil
}

func (l *Loader) publishReady(reason string, snap *store.Snapshot) {
	msg := fmt.Sprintf("Loaded %d employees from %s", snap.Len(), snap.Origin.Name)
	if snap.Origin.Fallback {
		msg += " (fallback data)"
	}
	l.publish(pubsub.StateReady, msg, reason)
}

func (l *Loader) publishError(reason string, err error) {
	l.publish(pubsub.StateError, err.Error(), reason)
}

// publish reports the current snapshot alongside state
func (l *Loader) publish(state, message, reason string) {
	if l.publisher == nil {
		return
	}

	snap := l.store.Snapshot()
	status := pubsub.DirectoryStatus{
		State:     state,
		Message:   message,
		Reason:    reason,
		Source:    snap.Origin.Name,
		Fallback:  snap.Origin.Fallback,
		Employees: snap.Len(),
		Version:   snap.Version,
		Cycles:    len(snap.Cycles),
	}
	if err := l.publisher.Publish(pubsub.TopicDirectoryStatus, state, status); err != nil {
		log.Warn("could not publish directory status", "state", state, "error", err)
	}
}
