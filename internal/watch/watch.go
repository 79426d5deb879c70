// Package watch follows a sample file that a recorder is still writing and
// reports its sample count and last timestamp each time it settles.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/npss/pkg/log"
	"github.com/bft-labs/npss/pkg/npss"
)

// Update describes the file after a change.
type Update struct {
	SampleCount   int
	LastTimestamp int64
}

// Config holds watcher options.
type Config struct {
	// DebounceDelay is the quiet period after the last change before the
	// file is rescanned.
	// Default: 250 milliseconds
	DebounceDelay time.Duration

	// Options are passed to every npss.Open.
	Options []npss.Option
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{DebounceDelay: 250 * time.Millisecond}
}

// Watcher rescans one sample file whenever it changes.
type Watcher struct {
	path     string
	delay    time.Duration
	opts     []npss.Option
	logger   log.Logger
	onUpdate func(Update)

	last    Update
	hasLast bool
}

// New creates a watcher for path. onUpdate is called from Run's goroutine
// whenever the count or last timestamp differ from the previous report.
func New(path string, cfg Config, logger log.Logger, onUpdate func(Update)) *Watcher {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultConfig().DebounceDelay
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Watcher{
		path:     path,
		delay:    cfg.DebounceDelay,
		opts:     cfg.Options,
		logger:   logger,
		onUpdate: onUpdate,
	}
}

// Run scans the file once, then follows it until ctx is cancelled.
// The parent directory is watched so a file that is replaced or created
// later is picked up too.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching sample file", log.String("file", w.path), log.Duration("debounce", w.delay))

	w.scan()

	debounce := time.NewTimer(w.delay)
	debounce.Stop()
	defer debounce.Stop()

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce.Reset(w.delay)

		case <-debounce.C:
			w.scan()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", log.Err(err))
		}
	}
}

// scan opens the file, reads its summary and reports it if it changed.
// A file caught mid-write fails to decode; the next change retries.
func (w *Watcher) scan() {
	snap, err := npss.Open(w.path, w.opts...)
	if err != nil {
		w.logger.Warn("scan sample file", log.String("file", w.path), log.Err(err))
		return
	}
	u := Update{SampleCount: snap.SampleCount(), LastTimestamp: snap.LastTimestamp()}
	if err := snap.Close(); err != nil {
		w.logger.Warn("close sample file", log.String("file", w.path), log.Err(err))
	}

	if w.hasLast && u == w.last {
		return
	}
	w.last, w.hasLast = u, true
	w.logger.Debug("sample file changed", log.Int("samples", u.SampleCount), log.Int64("last_timestamp", u.LastTimestamp))
	if w.onUpdate != nil {
		w.onUpdate(u)
	}
}
