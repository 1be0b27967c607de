// Package debounce coalesces bursts of calls into one call after a quiet
// period.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delays fn until no Trigger has happened for the configured
// window. Each Trigger restarts the timer and replaces the pending value, so
// fn fires exactly once per burst with the last value.
type Debouncer[T any] struct {
	window time.Duration
	fn     func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	armed   bool
	gen     uint64
	stopped bool
}

func New[T any](window time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{
		window: window,
		fn:     fn,
	}
}

// Trigger records v and restarts the quiet period.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending = v
	d.armed = true
	d.gen++
	gen := d.gen

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.fire(gen)
	})
}

// Flush fires the pending value immediately, if any.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.mu.Unlock()

	d.fire(gen)
}

// Pending reports whether a value is waiting for the quiet period to end.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// Stop drops any pending value. Later Triggers are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.armed = false
	if d.timer != nil {
		d.timer.Stop()
	}
}

// fire runs fn unless a newer Trigger superseded gen or the value was
// already delivered.
func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if !d.armed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.armed = false
	d.mu.Unlock()

	d.fn(v)
}
