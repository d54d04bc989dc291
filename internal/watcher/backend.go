package watcher

import "github.com/rprtr258/fun"

// RawKind is the low-level notification kind reported by a Backend.
// Backends are not trusted to classify changes precisely; the engine
// re-stats the watched path to decide what actually happened.
type RawKind uint8

const (
	RawChange RawKind = iota
	RawRename
)

func (k RawKind) String() string {
	return fun.Switch(k, "unknown").
		Case("change", RawChange).
		Case("rename", RawRename).
		End()
}

// Handle is an active OS-level watch for a single path.
type Handle interface {
	// Path the handle was created for.
	Path() string
	// Close releases the watch. Safe to call multiple times.
	Close() error
}

// Backend is the OS file-watching primitive. Watch establishes a watch
// on path and delivers raw notifications to onRaw until the handle is
// closed. filename is the entry inside a watched directory that the OS
// reported as changed; it is invalid when the OS could not name it.
// onErr is called when the watch is invalidated.
type Backend interface {
	Watch(path string, onRaw func(kind RawKind, filename fun.Option[string]), onErr func(error)) (Handle, error)
	Close() error
}
