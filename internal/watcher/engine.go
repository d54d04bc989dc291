package watcher

import (
	"sync"
	"time"

	"github.com/rprtr258/fun"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// existence checks for one Add batch run with bounded concurrency
const existenceCheckers = 4

type Config struct {
	// MaxRetries bounds watch re-establishment attempts after an
	// establish failure or an OS-level watch error. 0 means a single
	// attempt: the path is torn down on the first failure.
	MaxRetries uint
	// RetryDelay is the base backoff delay between attempts, doubled
	// on each retry.
	RetryDelay time.Duration
	// PollInterval drives a periodic verification sweep over all
	// watched paths. 0 disables polling.
	PollInterval time.Duration
	Logger       zerolog.Logger
}

var DefaultConfig = Config{
	MaxRetries: 5,
	RetryDelay: 200 * time.Millisecond,
	Logger:     zerolog.Nop(),
}

// Engine orchestrates watch lifecycle: it registers watches for added
// paths, keeps StatCache and Registry key sets in sync, interprets raw
// backend notifications and emits the public event stream.
type Engine struct {
	log          zerolog.Logger
	maxRetries   uint
	retryDelay   time.Duration
	pollInterval time.Duration

	backend  Backend
	emitter  *emitter
	cache    *StatCache
	registry *Registry
	stats    *statter
	resolver *resolver

	mu       sync.Mutex
	closed   bool
	epoch    uint64
	stopPoll chan struct{}
}

func New(fsys afero.Fs, backend Backend, config Config) *Engine {
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultConfig.RetryDelay
	}

	cache := NewStatCache()
	stats := newStatter(fsys)
	e := &Engine{
		log:          config.Logger,
		maxRetries:   config.MaxRetries,
		retryDelay:   config.RetryDelay,
		pollInterval: config.PollInterval,
		backend:      backend,
		emitter:      newEmitter(),
		cache:        cache,
		registry:     NewRegistry(backend),
		stats:        stats,
		resolver:     &resolver{cache: cache, stats: stats},
	}

	e.mu.Lock()
	e.startPolling()
	e.mu.Unlock()
	return e
}

// Subscribe registers fn for every public event. Returns an id for
// Unsubscribe. Callbacks run synchronously on the emitting goroutine.
func (e *Engine) Subscribe(fn func(Event)) uint64 {
	return e.emitter.subscribe(fn)
}

func (e *Engine) Unsubscribe(id uint64) {
	e.emitter.unsubscribe(id)
}

// Add starts watching the given paths. Paths that do not exist at call
// time are silently dropped: no error, no event, no registry entry.
// Paths already being watched are left untouched. Add after Close
// re-establishes new watches.
func (e *Engine) Add(paths ...string) {
	e.mu.Lock()
	if e.closed {
		e.closed = false
		e.startPolling()
	}
	e.mu.Unlock()

	// registration for the whole batch is gated on the filtering pass
	for _, path := range e.existing(paths) {
		if e.registry.Contains(path) {
			continue
		}
		e.register(path, 0)
	}
}

// Close tears down every watch, clears the cache and emits a single
// close event. Closing an already-closed engine is a no-op.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.epoch++
	stop := e.stopPoll
	e.stopPoll = nil
	e.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	e.registry.CloseAll()
	e.stats.forgetAll()
	e.cache.Clear()
	e.emitter.emit(Event{Type: EventClose})
}

// Reset re-establishes the watch for path with a fresh handle. Used to
// recover from a handle that silently stopped delivering events. The
// intermediate teardown emits no removed event.
func (e *Engine) Reset(path string) {
	if !e.registry.Contains(path) {
		return
	}
	e.teardown(path)
	e.register(path, 0)
}

// Verify runs a manual verification sweep: with no arguments over every
// path with a cached snapshot, otherwise over the given paths only.
// Each path is re-statted and a change is emitted when the modification
// time differs from the cached value. The cache entry is refreshed to
// the latest snapshot regardless of emission.
func (e *Engine) Verify(paths ...string) {
	if len(paths) == 0 {
		paths = e.cache.Paths()
	}
	for _, path := range paths {
		old, ok := e.cache.Get(path).Unpack()
		if !ok || !e.registry.Contains(path) {
			continue
		}

		gen := e.stats.issue(path)
		fresh, err := e.stats.take(path)
		if err != nil {
			// transient, re-evaluated on next event or sweep
			continue
		}
		if !e.stats.apply(path, gen, func() { e.cache.Put(path, fresh) }) {
			continue
		}

		if !fresh.ModTime.Equal(old.ModTime) {
			e.emitter.emit(Event{Type: EventChange, Path: path, Stat: fresh})
		}
	}
}

// Watched returns the paths currently being watched.
func (e *Engine) Watched() []string {
	return e.registry.Paths()
}

// existing filters paths to those that exist right now. The whole batch
// is checked before any registration proceeds.
func (e *Engine) existing(paths []string) []string {
	sem := make(chan struct{}, existenceCheckers)
	exists := make([]bool, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			_, err := e.stats.fs.Stat(path)
			exists[i] = err == nil
		}()
	}
	wg.Wait()

	res := make([]string, 0, len(paths))
	for i, path := range paths {
		if exists[i] {
			res = append(res, path)
		}
	}
	return res
}

// register establishes a watch for path and schedules the initial stat.
// Establish failures go through the bounded retry schedule.
func (e *Engine) register(path string, attempt uint) {
	_, err := e.registry.Register(path,
		func(kind RawKind, filename fun.Option[string]) { e.onRaw(path, kind, filename) },
		func(err error) { e.onError(path, err) },
	)
	if err != nil {
		e.log.Warn().Err(err).Str("path", path).Msg("establish watch")
		e.retry(path, attempt)
		return
	}

	// initial stat is async and does not gate registration
	gen := e.stats.issue(path)
	go func() {
		snapshot, err := e.stats.take(path)
		if err != nil {
			e.log.Debug().Err(err).Str("path", path).Msg("initial stat")
			return
		}
		// dropped if the watch is gone or a newer stat was issued
		e.stats.apply(path, gen, func() { e.cache.Put(path, snapshot) })
	}()
}

// retry schedules the next establishment attempt with exponential
// backoff, or gives up with a removed event once attempts are exhausted.
// A timer scheduled before a Close never fires as a live attempt, even
// when a later Add has reopened the engine.
func (e *Engine) retry(path string, attempt uint) {
	if attempt >= e.maxRetries {
		e.remove(path)
		return
	}

	e.mu.Lock()
	epoch := e.epoch
	e.mu.Unlock()

	delay := e.retryDelay << attempt
	time.AfterFunc(delay, func() {
		e.mu.Lock()
		live := !e.closed && e.epoch == epoch
		e.mu.Unlock()
		if !live || e.registry.Contains(path) {
			return
		}
		e.register(path, attempt+1)
	})
}

// onRaw handles a raw backend notification for a watched path.
func (e *Engine) onRaw(path string, kind RawKind, filename fun.Option[string]) {
	if !e.registry.Contains(path) {
		// stale callback, the watch was torn down meanwhile
		return
	}

	e.log.Debug().
		Str("path", path).
		Stringer("kind", kind).
		Str("filename", filename.OrDefault("")).
		Msg("raw notification")

	if !filename.Valid {
		// the OS could not name the changed entry, fall back to a
		// stat comparison scoped to this watch only
		e.Verify(path)
		return
	}

	if event, ok := e.resolver.resolve(path, filename).Unpack(); ok {
		e.emitter.emit(event)
	}
}

// onError handles watch invalidation reported by the backend. The path
// is torn down unconditionally; with MaxRetries > 0 the engine attempts
// to re-establish the watch before declaring the path removed.
func (e *Engine) onError(path string, err error) {
	if !e.registry.Contains(path) {
		// already torn down, never double-emit
		return
	}

	e.log.Warn().Err(err).Str("path", path).Msg("watch invalidated")
	e.teardown(path)

	if e.maxRetries == 0 {
		e.emitter.emit(Event{Type: EventRemoved, Path: path})
		return
	}
	e.retry(path, 0)
}

// remove tears the path down and emits exactly one removed event.
func (e *Engine) remove(path string) {
	e.teardown(path)
	e.emitter.emit(Event{Type: EventRemoved, Path: path})
}

// teardown clears both the handle map and the stat map for path.
// Every teardown site (error, reset, removal) goes through here so the
// two key sets never diverge.
func (e *Engine) teardown(path string) {
	e.registry.Unregister(path)
	e.cache.Delete(path)
	e.stats.forget(path)
}

// startPolling launches the periodic verification sweep.
// Callers must hold e.mu.
func (e *Engine) startPolling() {
	if e.pollInterval <= 0 {
		return
	}

	stop := make(chan struct{})
	e.stopPoll = stop
	go func() {
		ticker := time.NewTicker(e.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.Verify()
			case <-stop:
				return
			}
		}
	}()
}
