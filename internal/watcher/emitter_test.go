package watcher

import (
	"testing"

	"github.com/shoenig/test"
)

func TestEmitterDeliversInSubscriptionOrder(t *testing.T) {
	t.Parallel()

	e := newEmitter()

	var order []string
	e.subscribe(func(Event) { order = append(order, "first") })
	e.subscribe(func(Event) { order = append(order, "second") })

	e.emit(Event{Type: EventClose})
	test.Eq(t, []string{"first", "second"}, order)
}

func TestEmitterUnsubscribe(t *testing.T) {
	t.Parallel()

	e := newEmitter()

	calls := 0
	id := e.subscribe(func(Event) { calls++ })
	e.emit(Event{Type: EventClose})

	e.unsubscribe(id)
	e.unsubscribe(id)
	e.emit(Event{Type: EventClose})

	test.Eq(t, 1, calls)
}

func TestEmitterSubscriberMayUnsubscribeItself(t *testing.T) {
	t.Parallel()

	e := newEmitter()

	calls := 0
	var id uint64
	id = e.subscribe(func(Event) {
		calls++
		e.unsubscribe(id)
	})

	e.emit(Event{Type: EventClose})
	e.emit(Event{Type: EventClose})

	test.Eq(t, 1, calls)
}
