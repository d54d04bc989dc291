package watcher

import (
	"time"

	"github.com/rprtr258/fun"
)

// Snapshot is point-in-time metadata captured for a watched path.
type Snapshot struct {
	ModTime time.Time
	IsDir   bool
	Size    int64
}

type EventType uint8

const (
	// EventChange - a net change was detected on a watched path.
	EventChange EventType = iota
	// EventRemoved - a watch was torn down after an OS-level error.
	EventRemoved
	// EventClose - the engine was shut down explicitly.
	EventClose
)

func (t EventType) String() string {
	return fun.Switch(t, "unknown").
		Case("change", EventChange).
		Case("removed", EventRemoved).
		Case("close", EventClose).
		End()
}

// Event is a single entry of the public event stream.
type Event struct {
	Type EventType
	Path string
	// Stat is the fresh snapshot that triggered the event.
	// Only meaningful for EventChange.
	Stat Snapshot
}
