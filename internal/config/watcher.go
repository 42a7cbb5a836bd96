package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/rasterdoc/internal/event"
	"github.com/dshills/rasterdoc/internal/logging"
)

// DefaultDebounce coalesces bursts of file events into one reload.
const DefaultDebounce = 100 * time.Millisecond

// ReloadFunc receives the outcome of each reload. On error the previous
// settings stay in effect.
type ReloadFunc func(cfg Config, err error)

// Watcher reloads a config file when it changes.
//
// The parent directory is watched rather than the file so that editors
// replacing the file by rename are still noticed.
type Watcher struct {
	mu sync.Mutex

	path     string
	loader   *Loader
	onReload ReloadFunc
	fsw      *fsnotify.Watcher

	debounce time.Duration
	bus      *event.Bus
	log      *logging.Logger

	timer   *time.Timer
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the watcher waits for events to settle.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithReloadBus publishes each successfully reloaded Config on bus under
// event.TopicConfig.
func WithReloadBus(bus *event.Bus) WatchOption {
	return func(w *Watcher) {
		w.bus = bus
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(l *logging.Logger) WatchOption {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// Watch starts watching path and calls onReload after each change.
func Watch(path string, loader *Loader, onReload ReloadFunc, opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		loader:   loader,
		onReload: onReload,
		fsw:      fsw,
		debounce: DefaultDebounce,
		log:      logging.Null(),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.WithComponent("config")

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch %s: %v", w.path, err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

// Reload loads the file now, as a change would.
func (w *Watcher) Reload() {
	w.reload()
}

func (w *Watcher) reload() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	cfg, err := w.loader.Load(w.path)
	if err != nil {
		w.log.Warn("reload %s: %v", w.path, err)
	} else {
		w.log.Info("reloaded %s", w.path)
		if w.bus != nil {
			if perr := w.bus.Publish(context.Background(), event.TopicConfig, cfg, "config"); perr != nil {
				w.log.Warn("publish reload: %v", perr)
			}
		}
	}
	if w.onReload != nil {
		w.onReload(cfg, err)
	}
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops watching. Pending reloads are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	return w.fsw.Close()
}
