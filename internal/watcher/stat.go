package watcher

import (
	"sync"

	"github.com/spf13/afero"
)

// statter issues stat queries and sequences them per path. Overlapping
// async stats for the same path may complete out of order; a completion
// is applied only if no later request was issued for that path since,
// so the most recently issued request always wins.
type statter struct {
	fs afero.Fs

	mu sync.Mutex
	// seq never restarts, so a generation issued before a forget can
	// never collide with one issued after re-registration
	seq uint64
	gen map[string]uint64
}

func newStatter(fsys afero.Fs) *statter {
	return &statter{
		fs:  fsys,
		gen: map[string]uint64{},
	}
}

func (s *statter) take(path string) (Snapshot, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
	}, nil
}

// issue marks a new stat request for path and returns its generation.
// Generations are globally unique.
func (s *statter) issue(path string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.gen[path] = s.seq
	return s.seq
}

// apply runs fn iff gen is still the latest issued request for path.
// Teardown forgets the path's generation, so completions that raced
// with a teardown or a newer request never apply.
func (s *statter) apply(path string, gen uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[path] != gen {
		return false
	}
	fn()
	return true
}

func (s *statter) forget(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.gen, path)
}

func (s *statter) forgetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.gen)
}
