package watcher

import "sync"

// emitter is a minimal subscribe/unsubscribe broadcast channel.
// Delivery is synchronous in subscription order.
type emitter struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]func(Event)
	order  []uint64
}

func newEmitter() *emitter {
	return &emitter{
		subs: map[uint64]func(Event){},
	}
}

func (e *emitter) subscribe(fn func(Event)) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.subs[e.nextID] = fn
	e.order = append(e.order, e.nextID)
	return e.nextID
}

func (e *emitter) unsubscribe(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subs, id)
	for i, subID := range e.order {
		if subID == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

func (e *emitter) emit(event Event) {
	e.mu.Lock()
	fns := make([]func(Event), 0, len(e.order))
	for _, id := range e.order {
		if fn, ok := e.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	e.mu.Unlock()

	// callbacks run outside the lock so they may subscribe/unsubscribe
	for _, fn := range fns {
		fn(event)
	}
}
