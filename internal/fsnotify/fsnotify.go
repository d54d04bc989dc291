// Package fsnotify is a light wrapper around github.com/fsnotify/fsnotify
// that exposes per-path watches with change/error callbacks. Events for
// entries inside a watched directory are routed to that directory's watch
// together with the entry name.
package fsnotify

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rprtr258/fun"
	"github.com/rs/zerolog/log"

	"github.com/rprtr258/fswatch/internal/errors"
	"github.com/rprtr258/fswatch/internal/watcher"
)

type watch struct {
	path  string
	isDir bool
	onRaw func(watcher.RawKind, fun.Option[string])
	onErr func(error)
}

// Watcher multiplexes one underlying fsnotify watcher over per-path
// registrations. Create via New.
type Watcher struct {
	w *fsnotify.Watcher

	mu      sync.Mutex
	watches map[string]*watch

	// doneClose indicates that we are done handling the close from the
	// underlying fsnotify
	doneClose chan struct{}
}

var _ watcher.Backend = (*Watcher)(nil)

func New() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}

	res := &Watcher{
		w:         w,
		watches:   map[string]*watch{},
		doneClose: make(chan struct{}),
	}
	go res.runEventLoop()
	return res, nil
}

// Watch starts watching path. The callbacks are invoked from the event
// loop goroutine until the returned handle is closed.
func (w *Watcher) Watch(
	path string,
	onRaw func(watcher.RawKind, fun.Option[string]),
	onErr func(error),
) (watcher.Handle, error) {
	w.mu.Lock()
	if _, ok := w.watches[path]; ok {
		w.mu.Unlock()
		return nil, errors.Newf("path already watched: %s", path)
	}
	w.mu.Unlock()

	if err := w.w.Add(path); err != nil {
		return nil, errors.Wrapf(err, "add watch for %s", path)
	}

	info, errStat := os.Stat(path)
	isDir := errStat == nil && info.IsDir()

	w.mu.Lock()
	w.watches[path] = &watch{path: path, isDir: isDir, onRaw: onRaw, onErr: onErr}
	w.mu.Unlock()

	log.Debug().Str("path", path).Msg("watch added")
	return &handle{w: w, path: path}, nil
}

// Close shuts down the watcher, removing all watches and stopping the
// event loop.
func (w *Watcher) Close() error {
	if err := w.w.Close(); err != nil {
		return errors.Wrap(err, "shutdown underlying fsnotify watcher")
	}
	<-w.doneClose
	return nil
}

type handle struct {
	w    *Watcher
	path string
	once sync.Once
}

func (h *handle) Path() string { return h.path }

// Close releases the watch. Closing twice is a no-op.
func (h *handle) Close() error {
	h.once.Do(func() {
		h.w.drop(h.path)
	})
	return nil
}

func (w *Watcher) drop(path string) {
	w.mu.Lock()
	_, ok := w.watches[path]
	delete(w.watches, path)
	w.mu.Unlock()

	if ok {
		// best efforts, the underlying watch may already be gone
		_ = w.w.Remove(path)
		log.Debug().Str("path", path).Msg("watch removed")
	}
}

func (w *Watcher) runEventLoop() {
	defer close(w.doneClose)
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}

			log.Debug().
				Str("path", ev.Name).
				Stringer("op", ev.Op).
				Msg("fsnotify event")

			w.route(ev)
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			w.broadcastError(err)
		}
	}
}

// route delivers a single fsnotify event to the watch it belongs to:
// either the watch on the event path itself or the watch on its
// containing directory. Remove/Rename of a watched path kills the
// underlying watch, which is reported through the error callback.
func (w *Watcher) route(ev fsnotify.Event) {
	w.mu.Lock()
	self, onSelf := w.watches[ev.Name]
	parent, onParent := w.watches[filepath.Dir(ev.Name)]
	w.mu.Unlock()

	switch {
	case onSelf:
		if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			// the OS drops the watch together with the entry
			self.onErr(errors.Newf("watch invalidated: %s", ev.Name))
			return
		}
		// events on a watched directory itself name no contained entry
		self.onRaw(watcher.RawChange, fun.Optional(filepath.Base(ev.Name), !self.isDir))
	case onParent:
		kind := watcher.RawChange
		if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			kind = watcher.RawRename
		}
		name := filepath.Base(ev.Name)
		parent.onRaw(kind, fun.Optional(name, name != "" && name != "."))
	}
}

// broadcastError reports an underlying watcher error to every watch.
// fsnotify errors are not attributable to a single path.
func (w *Watcher) broadcastError(err error) {
	w.mu.Lock()
	watches := make([]*watch, 0, len(w.watches))
	for _, wt := range w.watches {
		watches = append(watches, wt)
	}
	w.mu.Unlock()

	for _, wt := range watches {
		wt.onErr(err)
	}
}
