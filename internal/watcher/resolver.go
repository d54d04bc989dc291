package watcher

import (
	"path/filepath"

	"github.com/rprtr258/fun"
)

// resolver turns a raw backend notification into zero-or-one logical
// change using current StatCache contents.
type resolver struct {
	cache *StatCache
	stats *statter
}

// resolve re-stats the watched path, refreshes the cache and determines
// the true changed entity: when the watched path turns out to be a
// directory the change is attributed to the named entry inside it,
// otherwise to the watched path itself. The directory-vs-file decision
// is re-evaluated on every event, a path's type is not assumed stable.
// Invalid result means the notification is dropped.
func (r *resolver) resolve(path string, filename fun.Option[string]) fun.Option[Event] {
	gen := r.stats.issue(path)
	fresh, err := r.stats.take(path)
	if err != nil {
		// transient, the path may have been deleted mid-event
		return fun.Invalid[Event]()
	}
	if !r.stats.apply(path, gen, func() { r.cache.Put(path, fresh) }) {
		// a newer stat was issued or the watch was torn down meanwhile
		return fun.Invalid[Event]()
	}

	identity := path
	if name, ok := filename.Unpack(); ok && fresh.IsDir {
		identity = filepath.Join(path, name)
	}
	return fun.Valid(Event{Type: EventChange, Path: identity, Stat: fresh})
}
