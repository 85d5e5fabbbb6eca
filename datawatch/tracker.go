// Package datawatch tracks the freshness of a fixed set of external data
// sources. A monotonic version counter increments whenever any watched
// source's modification time changes; the response cache keys on this
// version so stale answers become unreachable without explicit invalidation.
//
// The tracker never reads source content, only modification times. Change
// detection runs two ways: an on-demand stat pass on every Current call,
// and optionally an fsnotify watcher pushing bumps between calls.
package datawatch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hupe1980/healthmesh/logging"
)

// Source names one watched data resource.
type Source struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// Options holds configuration overrides passed to NewTracker.
type Options struct {
	Logger logging.Logger
}

// Tracker holds the last-observed modification time per source and a single
// shared version counter. The version is monotonic for the lifetime of the
// process; it does not persist across restarts.
type Tracker struct {
	mu       sync.Mutex
	sources  []Source
	modTimes map[string]time.Time
	version  int64
	watcher  *fsnotify.Watcher
	done     chan struct{}
	logger   logging.Logger
}

// NewTracker constructs a Tracker over the given sources. The initial stat
// pass establishes the baseline without bumping the version, so the first
// Current call reports 0 unless a source changed in between.
func NewTracker(sources []Source, optFns ...func(o *Options)) *Tracker {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	t := &Tracker{
		sources:  sources,
		modTimes: make(map[string]time.Time, len(sources)),
		logger:   opts.Logger,
	}
	for _, s := range sources {
		if info, err := os.Stat(s.Path); err == nil {
			t.modTimes[s.Path] = info.ModTime()
		}
	}
	return t
}

// Current runs a check pass over all sources and returns the version. All
// changes observed within one pass collapse into a single bump.
func (t *Tracker) Current() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkLocked()
	return t.version
}

// CheckNow runs a check pass and reports whether anything changed.
func (t *Tracker) CheckNow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checkLocked()
}

// checkLocked must be called with t.mu held.
func (t *Tracker) checkLocked() bool {
	changed := false
	for _, s := range t.sources {
		info, err := os.Stat(s.Path)
		if err != nil {
			// A source disappearing is a change too.
			if _, seen := t.modTimes[s.Path]; seen {
				delete(t.modTimes, s.Path)
				changed = true
				t.logger.Warn("watched source removed name=%s path=%s", s.Name, s.Path)
			}
			continue
		}
		if prev, seen := t.modTimes[s.Path]; !seen || !prev.Equal(info.ModTime()) {
			t.modTimes[s.Path] = info.ModTime()
			if seen {
				changed = true
			}
		}
	}
	if changed {
		t.version++
		t.logger.Info("data version bumped version=%d", t.version)
	}
	return changed
}

// Watch starts an fsnotify watcher on the directories containing the
// sources so the version advances between Current calls as well. Close
// stops it. Calling Watch twice is an error.
func (t *Tracker) Watch() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.watcher != nil {
		return fmt.Errorf("tracker already watching")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	watched := map[string]bool{}
	paths := map[string]bool{}
	for _, s := range t.sources {
		paths[filepath.Clean(s.Path)] = true
		dir := filepath.Dir(s.Path)
		if watched[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched[dir] = true
	}

	t.watcher = w
	t.done = make(chan struct{})

	go func() {
		for {
			select {
			case <-t.done:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !paths[filepath.Clean(ev.Name)] {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					t.CheckNow()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				t.logger.Warn("watcher error: %v", err)
			}
		}
	}()

	return nil
}

// Close stops the fsnotify watcher if one is running.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.watcher == nil {
		return nil
	}
	close(t.done)
	err := t.watcher.Close()
	t.watcher = nil
	return err
}

// Sources returns the watched source list.
func (t *Tracker) Sources() []Source {
	srcs := make([]Source, len(t.sources))
	copy(srcs, t.sources)
	return srcs
}
