// Package watch reruns an action when a file changes on disk. Bursts of
// events (editors writing in several steps, rename-on-save) are debounced
// into one call.
//
// Typical usage:
//
//	w := watch.New("page.html", watch.Options{Debounce: 300 * time.Millisecond})
//	go w.OnChange(ctx, func() error { _, err := panel.Refresh(ctx); return err })
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Options tunes the watcher.
type Options struct {
	// Debounce is the quiet period after the last event before the action
	// fires. Default: 300ms.
	Debounce time.Duration
	Logger   *slog.Logger
}

func (o *Options) defaults() {
	if o.Debounce <= 0 {
		o.Debounce = 300 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Watcher watches one file. It is safe for concurrent use.
type Watcher struct {
	path string
	opts Options

	startOnce sync.Once
	started   chan struct{}

	events  atomic.Int64
	errors  atomic.Int64
	reloads atomic.Int64
}

// Stats are point-in-time counters.
type Stats struct {
	Events  int64 `json:"events"`
	Errors  int64 `json:"errors"`
	Reloads int64 `json:"reloads"`
}

// New creates a Watcher for path. Call OnChange to start it.
func New(path string, opts Options) *Watcher {
	opts.defaults()
	return &Watcher{path: filepath.Clean(path), opts: opts, started: make(chan struct{})}
}

// Started is closed once the watch is installed.
func (w *Watcher) Started() <-chan struct{} { return w.started }

// Stats returns the current counters.
func (w *Watcher) Stats() Stats {
	return Stats{
		Events:  w.events.Load(),
		Errors:  w.errors.Load(),
		Reloads: w.reloads.Load(),
	}
}

// OnChange blocks until ctx is cancelled, calling action after each debounced
// burst of writes to the file. The parent directory is watched so that
// rename-on-save is seen as a change. A failing action is logged and the
// watcher keeps running.
func (w *Watcher) OnChange(ctx context.Context, action func() error) error {
	log := w.opts.Logger

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: new watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch: add %s: %w", filepath.Dir(w.path), err)
	}
	w.startOnce.Do(func() { close(w.started) })
	log.Info("watch: started", "path", w.path, "debounce", w.opts.Debounce)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			log.Info("watch: stopped", "path", w.path)
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.events.Add(1)
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.opts.Debounce)
			fire = timer.C
			log.Debug("watch: change detected, debouncing", "path", w.path, "op", ev.Op.String())

		case <-fire:
			fire = nil
			w.fire(log, action)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.errors.Add(1)
			log.Warn("watch: watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) fire(log *slog.Logger, action func() error) {
	start := time.Now()
	if err := action(); err != nil {
		w.errors.Add(1)
		log.Error("watch: reload failed", "path", w.path, "error", err)
		return
	}
	w.reloads.Add(1)
	log.Info("watch: reload complete", "path", w.path, "duration", time.Since(start))
}
