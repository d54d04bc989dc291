package watcher

import (
	"sync"

	"github.com/rprtr258/fun"
)

// StatCache stores the last-observed snapshot per watched path.
// Pure in-memory mapping, no I/O. All operations are total.
type StatCache struct {
	mu      sync.Mutex
	entries map[string]Snapshot
}

func NewStatCache() *StatCache {
	return &StatCache{
		entries: map[string]Snapshot{},
	}
}

func (c *StatCache) Put(path string, snapshot Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = snapshot
}

func (c *StatCache) Get(path string) fun.Option[Snapshot] {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot, ok := c.entries[path]
	return fun.Optional(snapshot, ok)
}

func (c *StatCache) Delete(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Paths returns all paths with a cached snapshot, in no particular order.
func (c *StatCache) Paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]string, 0, len(c.entries))
	for path := range c.entries {
		res = append(res, path)
	}
	return res
}

func (c *StatCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

func (c *StatCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
