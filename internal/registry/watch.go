package registry

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Aman-CERP/ctxindex/internal/config"
)

// Loader reads a configuration file.
type Loader func(path string) (*config.Config, error)

// Watch reloads the registry whenever the config file at path changes, until
// ctx is done. Bursts of writes within debounce trigger one reload. The
// parent directory is watched so editors that replace the file are seen.
// onReload, when set, receives the outcome of every reload attempt.
func (r *Registry) Watch(ctx context.Context, path string, debounce time.Duration, load Loader, onReload func(error)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer fsw.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	reload := func() {
		cfg, err := load(abs)
		if err == nil {
			err = r.Reload(cfg)
		}
		if err != nil {
			r.logger.Warn("config reload failed",
				slog.String("path", abs),
				slog.String("error", err.Error()))
		}
		if onReload != nil {
			onReload(err)
		}
	}

	d := newDebouncer(debounce, reload)
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			r.logger.Debug("config change detected",
				slog.String("path", abs),
				slog.String("op", ev.Op.String()))
			d.trigger()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("config watcher error", slog.String("error", err.Error()))
		}
	}
}

// debouncer runs fn once a window has passed without another trigger.
type debouncer struct {
	window time.Duration
	fn     func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newDebouncer(window time.Duration, fn func()) *debouncer {
	return &debouncer{window: window, fn: fn}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *debouncer) fire() {
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if !stopped {
		d.fn()
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
