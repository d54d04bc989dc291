package watcher

import (
	"sync"

	"github.com/rprtr258/fun"

	"github.com/rprtr258/fswatch/internal/errors"
)

// Registry maps each watched path to its active backend handle and owns
// handle lifecycle. At most one handle exists per path at any time;
// closing is the only release path and is safe to repeat.
type Registry struct {
	backend Backend

	mu      sync.Mutex
	watches map[string]Handle
}

func NewRegistry(backend Backend) *Registry {
	return &Registry{
		backend: backend,
		watches: map[string]Handle{},
	}
}

// Register establishes a new backend watch for path and stores its handle.
// Fails if a handle for path already exists or the backend rejects the path.
func (r *Registry) Register(
	path string,
	onRaw func(kind RawKind, filename fun.Option[string]),
	onErr func(error),
) (Handle, error) {
	r.mu.Lock()
	if _, ok := r.watches[path]; ok {
		r.mu.Unlock()
		return nil, errors.Newf("watch already registered: %s", path)
	}
	r.mu.Unlock()

	handle, err := r.backend.Watch(path, onRaw, onErr)
	if err != nil {
		return nil, errors.Wrapf(err, "establish watch for %s", path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.watches[path]; ok {
		// lost a register race, keep the existing handle
		_ = handle.Close()
		return old, nil
	}
	r.watches[path] = handle
	return handle, nil
}

func (r *Registry) Lookup(path string) fun.Option[Handle] {
	r.mu.Lock()
	defer r.mu.Unlock()
	handle, ok := r.watches[path]
	return fun.Optional(handle, ok)
}

func (r *Registry) Contains(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.watches[path]
	return ok
}

// Unregister closes the handle for path and removes the entry.
// No-op if path is not registered.
func (r *Registry) Unregister(path string) {
	r.mu.Lock()
	handle, ok := r.watches[path]
	delete(r.watches, path)
	r.mu.Unlock()

	if ok {
		_ = handle.Close()
	}
}

// CloseAll closes every handle and clears the map.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	watches := r.watches
	r.watches = map[string]Handle{}
	r.mu.Unlock()

	for _, handle := range watches {
		_ = handle.Close()
	}
}

func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]string, 0, len(r.watches))
	for path := range r.watches {
		res = append(res, path)
	}
	return res
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watches)
}
