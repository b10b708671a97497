package batch

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/AnyUserName/imgpress/internal/mediatype"
)

// watchDebounce is how long a file must stay quiet before it is picked
// up. Browsers and file managers write downloads in bursts; the last
// event of a burst wins and half-written files are never read.
const watchDebounce = 500 * time.Millisecond

// Watcher turns file events in an intake directory into Sources. Only
// files whose extension is on the intake allow-list are reported;
// hidden files are skipped. The directory is watched non-recursively.
type Watcher struct {
	fsw    *fsnotify.Watcher
	events chan Source
	logger zerolog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer

	done      chan struct{}
	closeOnce sync.Once
}

// NewWatcher starts watching dir. Close releases the inotify handle.
func NewWatcher(dir string, logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		fsw:    fsw,
		events: make(chan Source, 64),
		logger: logger,
		timers: make(map[string]*time.Timer),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Events delivers debounced intake files. The channel is never closed;
// stop consuming once Close has been called.
func (w *Watcher) Events() <-chan Source {
	return w.events
}

// Close stops watching and cancels pending debounce timers.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		for path, t := range w.timers {
			t.Stop()
			delete(w.timers, path)
		}
		w.mu.Unlock()
	})
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	exts := mediatype.ScanExtensions()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			if !exts[strings.ToLower(filepath.Ext(ev.Name))] {
				continue
			}
			w.bounce(ev.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

// bounce (re)arms the per-path debounce timer.
func (w *Watcher) bounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(watchDebounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.emit(path)
	})
}

func (w *Watcher) emit(path string) {
	src, err := FromFile(path)
	if err != nil {
		// The file may have been renamed or deleted during the settle
		// window.
		w.logger.Debug().Err(err).Str("path", path).Msg("skipping intake file")
		return
	}
	select {
	case w.events <- src:
	case <-w.done:
	}
}
