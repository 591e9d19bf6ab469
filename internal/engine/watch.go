package engine

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is how long Watch waits after the last event on a file
// before reporting it.
const DebounceInterval = 100 * time.Millisecond

// Watch watches paths and calls fn with the path of every script whose
// content changed. Directories are watched recursively. Events are
// debounced per file, and writes that leave the content unchanged are
// dropped, including the ones fn makes itself. Watch returns when ctx is
// done.
func (e *Engine) Watch(ctx context.Context, paths []string, fn func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	files := make(map[string]bool)
	var dirs []string
	for _, p := range paths {
		p = filepath.Clean(p)
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if info.IsDir() {
			dirs = append(dirs, p)
			err = watchDirRecursive(watcher, p)
		} else {
			// editors often replace files, so watch the parent directory
			files[p] = true
			err = watcher.Add(filepath.Dir(p))
		}
		if err != nil {
			return err
		}
	}

	d := newDebouncer(DebounceInterval)
	defer d.stop()

	e.logger.Info("watching for changes", "paths", paths)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := filepath.Clean(event.Name)

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(name); err == nil && info.IsDir() {
					if err := watchDirRecursive(watcher, name); err != nil {
						e.logger.Error("failed to watch directory", "dir", name, "error", err)
					}
					continue
				}
			}
			if !files[name] && !(e.isScript(name) && within(dirs, name)) {
				continue
			}

			d.touch(name)

		case ex := <-d.fired:
			if !d.expire(ex) {
				continue
			}
			content, err := os.ReadFile(ex.name) //nolint:gosec // G304: name comes from the watcher
			if err != nil {
				e.logger.Debug("changed file unreadable", "path", ex.name, "error", err)
				continue
			}
			if !e.Changed(ex.name, content) {
				continue
			}
			e.logger.Debug("file changed", "path", ex.name)
			fn(ex.name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watcher error", "error", err)
		}
	}
}

// expiry is a debounce timer that fired for name.
type expiry struct {
	name  string
	timer *time.Timer
}

// debouncer holds one pending timer per file. It is owned by the Watch
// loop; timers only hand their expiry back to that loop, so fn never runs
// concurrently or after Watch returns.
type debouncer struct {
	interval time.Duration
	timers   map[string]*time.Timer
	fired    chan *expiry
	done     chan struct{}
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{
		interval: interval,
		timers:   make(map[string]*time.Timer),
		fired:    make(chan *expiry),
		done:     make(chan struct{}),
	}
}

// touch (re)starts the timer for name.
func (d *debouncer) touch(name string) {
	if t, ok := d.timers[name]; ok {
		t.Stop()
	}
	ex := &expiry{name: name}
	ex.timer = time.AfterFunc(d.interval, func() {
		select {
		case d.fired <- ex:
		case <-d.done:
		}
	})
	d.timers[name] = ex.timer
}

// expire reports whether ex is the current timer of its file and forgets
// it. An expiry from a timer that was replaced after it fired is stale.
func (d *debouncer) expire(ex *expiry) bool {
	if d.timers[ex.name] != ex.timer {
		return false
	}
	delete(d.timers, ex.name)
	return true
}

func (d *debouncer) stop() {
	close(d.done)
	for _, t := range d.timers {
		t.Stop()
	}
}

// within reports whether name lies under one of dirs.
func within(dirs []string, name string) bool {
	for _, dir := range dirs {
		rel, err := filepath.Rel(dir, name)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}
