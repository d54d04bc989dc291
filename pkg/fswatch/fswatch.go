// Package fswatch is the public file-change notification API. It wires
// the fsnotify backend into the reconciliation engine and exposes a
// small subscribe/unsubscribe surface.
//
//	w, err := fswatch.New()
//	if err != nil { ... }
//	defer w.Close()
//
//	w.Subscribe(func(e fswatch.Event) { ... })
//	w.Add("/tmp/a.txt", "/tmp/dir")
package fswatch

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/rprtr258/fswatch/internal/errors"
	"github.com/rprtr258/fswatch/internal/fsnotify"
	"github.com/rprtr258/fswatch/internal/watcher"
)

type (
	Event     = watcher.Event
	EventType = watcher.EventType
	Snapshot  = watcher.Snapshot
)

const (
	EventChange  = watcher.EventChange
	EventRemoved = watcher.EventRemoved
	EventClose   = watcher.EventClose
)

type Option func(*watcher.Config)

// WithMaxRetries bounds per-path watch re-establishment attempts.
func WithMaxRetries(n uint) Option {
	return func(c *watcher.Config) { c.MaxRetries = n }
}

// WithPollInterval enables the periodic verification sweep.
func WithPollInterval(interval time.Duration) Option {
	return func(c *watcher.Config) { c.PollInterval = interval }
}

// WithLogger routes engine logs to the given logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *watcher.Config) { c.Logger = logger }
}

// Watcher is a file-change notifier over a set of filesystem paths.
type Watcher struct {
	engine  *watcher.Engine
	backend *fsnotify.Watcher
}

func New(opts ...Option) (*Watcher, error) {
	backend, err := fsnotify.New()
	if err != nil {
		return nil, errors.Wrap(err, "create backend")
	}

	config := watcher.DefaultConfig
	for _, opt := range opts {
		opt(&config)
	}

	return &Watcher{
		engine:  watcher.New(afero.NewOsFs(), backend, config),
		backend: backend,
	}, nil
}

// Add starts watching the given paths. Paths that do not exist at call
// time are silently dropped.
func (w *Watcher) Add(paths ...string) {
	w.engine.Add(paths...)
}

// Subscribe registers fn for every event. Returns an id for Unsubscribe.
func (w *Watcher) Subscribe(fn func(Event)) uint64 {
	return w.engine.Subscribe(fn)
}

func (w *Watcher) Unsubscribe(id uint64) {
	w.engine.Unsubscribe(id)
}

// Verify forces a fresh stat comparison for the given paths, or for
// every watched path when called with no arguments.
func (w *Watcher) Verify(paths ...string) {
	w.engine.Verify(paths...)
}

// Reset tears down and re-establishes the watch for path.
func (w *Watcher) Reset(path string) {
	w.engine.Reset(path)
}

// Watched returns the paths currently being watched.
func (w *Watcher) Watched() []string {
	return w.engine.Watched()
}

// Close stops all watching and emits a single close event.
func (w *Watcher) Close() error {
	w.engine.Close()
	return w.backend.Close()
}

// Watch is a single-path convenience: it constructs a watcher for path
// and subscribes callback to its change events.
func Watch(path string, callback func(path string, stat Snapshot)) (*Watcher, error) {
	w, err := New()
	if err != nil {
		return nil, err
	}

	w.Subscribe(func(e Event) {
		if e.Type == EventChange {
			callback(e.Path, e.Stat)
		}
	})
	w.Add(path)
	return w, nil
}
