package dev

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Change is one detected file change.
type Change struct {
	// Path is the changed file.
	Path string

	// Deleted marks removals.
	Deleted bool
}

// WatcherConfig configures the polling file watcher.
type WatcherConfig struct {
	// Dir is the directory to watch.
	Dir string

	// IgnorePrefix skips files and directories with this name prefix.
	IgnorePrefix string

	// Interval is the poll interval. Default 100ms.
	Interval time.Duration
}

// Watcher polls a directory tree for modification-time changes.
// Polling avoids platform-specific notification APIs at the cost of
// the configured interval's latency, which is fine for a dev loop.
type Watcher struct {
	config   WatcherConfig
	onChange func([]Change)

	mu         sync.Mutex
	timestamps map[string]time.Time
}

// NewWatcher creates a watcher over config.Dir.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Interval == 0 {
		config.Interval = 100 * time.Millisecond
	}
	if config.IgnorePrefix == "" {
		config.IgnorePrefix = "-"
	}
	return &Watcher{
		config:     config,
		timestamps: make(map[string]time.Time),
	}
}

// OnChange sets the callback invoked with each batch of changes.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start polls until ctx is cancelled. The first scan only records
// timestamps; changes are reported from the second scan on.
func (w *Watcher) Start(ctx context.Context) error {
	w.scan(true)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if changes := w.scan(false); len(changes) > 0 {
				w.mu.Lock()
				fn := w.onChange
				w.mu.Unlock()
				if fn != nil {
					fn(changes)
				}
			}
		}
	}
}

// scan walks the tree once, updating timestamps and collecting
// changes. initial suppresses reporting.
func (w *Watcher) scan(initial bool) []Change {
	seen := map[string]bool{}
	var changes []Change

	filepath.Walk(w.config.Dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if strings.HasPrefix(info.Name(), w.config.IgnorePrefix) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}

		seen[p] = true
		w.mu.Lock()
		last, known := w.timestamps[p]
		w.timestamps[p] = info.ModTime()
		w.mu.Unlock()

		if !initial && (!known || info.ModTime().After(last)) {
			changes = append(changes, Change{Path: p})
		}
		return nil
	})

	// Removed files.
	w.mu.Lock()
	for p := range w.timestamps {
		if !seen[p] {
			delete(w.timestamps, p)
			if !initial {
				changes = append(changes, Change{Path: p, Deleted: true})
			}
		}
	}
	w.mu.Unlock()

	return changes
}
