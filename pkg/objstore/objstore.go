// Package objstore provides shared state objects with atomic
// whole-object replacement. Writers never expose a partially updated
// object and readers always see the most recently completed publish.
// Change notification is an explicit event channel drained by the
// consumer, not a callback firing from the writer's context.
package objstore

import (
	"sync"
	"sync/atomic"
)

// Obj holds one shared object of type T. Get returns a copy of the
// last published value; Set publishes a complete replacement.
type Obj[T any] struct {
	v        atomic.Pointer[T]
	readOnly atomic.Bool

	mu   sync.Mutex
	subs []chan struct{}
}

// New returns an Obj initialized to the given value.
func New[T any](initial T) *Obj[T] {
	o := &Obj[T]{}
	o.v.Store(&initial)
	return o
}

// Get returns the most recently published value.
func (o *Obj[T]) Get() T {
	return *o.v.Load()
}

// Set publishes a new value and notifies subscribers. The stored
// pointer is never handed out, so the published value cannot be
// mutated behind readers' backs.
func (o *Obj[T]) Set(v T) {
	o.v.Store(&v)
	o.notify()
}

// Subscribe returns a channel that receives one token after each
// publish. The channel has capacity one and pending notifications
// coalesce, so a slow consumer sees at most one event per drain and
// always reads the latest value with Get.
func (o *Obj[T]) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	o.mu.Lock()
	o.subs = append(o.subs, ch)
	o.mu.Unlock()
	return ch
}

func (o *Obj[T]) notify() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, ch := range o.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// SetReadOnly marks the object as externally owned. The flag is
// advisory: the owning module checks it before writing, which is how
// a ground link takes over an object normally produced on-board.
func (o *Obj[T]) SetReadOnly(ro bool) {
	o.readOnly.Store(ro)
}

// ReadOnly reports whether the object is externally owned.
func (o *Obj[T]) ReadOnly() bool {
	return o.readOnly.Load()
}
