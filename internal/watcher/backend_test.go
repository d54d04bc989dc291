package watcher

import (
	"sync"

	"github.com/rprtr258/fun"

	"github.com/rprtr258/fswatch/internal/errors"
)

// stubBackend is a scriptable Backend for tests: raw notifications and
// watch errors are injected by hand.
type stubBackend struct {
	mu         sync.Mutex
	watches    map[string]*stubWatch
	refuse     map[string]error
	watchCalls map[string]int
	closed     bool
}

type stubWatch struct {
	path   string
	onRaw  func(RawKind, fun.Option[string])
	onErr  func(error)
	closes int
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		watches:    map[string]*stubWatch{},
		refuse:     map[string]error{},
		watchCalls: map[string]int{},
	}
}

func (b *stubBackend) Watch(
	path string,
	onRaw func(RawKind, fun.Option[string]),
	onErr func(error),
) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.watchCalls[path]++
	if err, ok := b.refuse[path]; ok {
		return nil, err
	}
	if _, ok := b.watches[path]; ok {
		return nil, errors.Newf("already watched: %s", path)
	}

	w := &stubWatch{path: path, onRaw: onRaw, onErr: onErr}
	b.watches[path] = w
	return &stubHandle{backend: b, watch: w}, nil
}

func (b *stubBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// refusePath makes subsequent Watch calls for path fail.
func (b *stubBackend) refusePath(path string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refuse[path] = err
}

func (b *stubBackend) emit(path string, kind RawKind, filename fun.Option[string]) {
	b.mu.Lock()
	w, ok := b.watches[path]
	b.mu.Unlock()
	if ok {
		w.onRaw(kind, filename)
	}
}

func (b *stubBackend) fail(path string, err error) {
	b.mu.Lock()
	w, ok := b.watches[path]
	b.mu.Unlock()
	if ok {
		w.onErr(err)
	}
}

func (b *stubBackend) watching(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.watches[path]
	return ok
}

func (b *stubBackend) calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.watchCalls[path]
}

type stubHandle struct {
	backend *stubBackend
	watch   *stubWatch
	once    sync.Once
}

func (h *stubHandle) Path() string { return h.watch.path }

func (h *stubHandle) Close() error {
	h.once.Do(func() {
		h.backend.mu.Lock()
		defer h.backend.mu.Unlock()
		h.watch.closes++
		if h.backend.watches[h.watch.path] == h.watch {
			delete(h.backend.watches, h.watch.path)
		}
	})
	return nil
}
