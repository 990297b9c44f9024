// Package debounce provides a keyed delay-coalescing scheduler: bursts of
// calls sharing a key collapse into a single task run after a quiet period.
package debounce

import (
	"sync"
	"time"
)

// Debouncer schedules at most one pending task per key. Scheduling a task
// for a key that already has one pending cancels the earlier run.
type Debouncer[K comparable] struct {
	delay time.Duration

	mu     sync.Mutex
	timers map[K]*time.Timer
	gens   map[K]uint64
	closed bool
}

// New creates a Debouncer that fires tasks after the given quiet period.
func New[K comparable](delay time.Duration) *Debouncer[K] {
	return &Debouncer[K]{
		delay:  delay,
		timers: make(map[K]*time.Timer),
		gens:   make(map[K]uint64),
	}
}

// Debounce schedules task to run after the quiet period. Any task already
// pending for the same key is cancelled and replaced. Calls after Shutdown
// are no-ops.
func (d *Debouncer[K]) Debounce(key K, task func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	if existing, ok := d.timers[key]; ok {
		existing.Stop()
	}

	// Stop can miss a timer whose callback is already on its way; the
	// generation check in fire keeps that stale callback from running
	// the old task or clobbering the replacement's entry.
	d.gens[key]++
	gen := d.gens[key]

	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.fire(key, gen, task)
	})
}

// fire runs task unless the scheduling that armed it has been superseded
// or the Debouncer was shut down.
func (d *Debouncer[K]) fire(key K, gen uint64, task func()) {
	d.mu.Lock()
	if d.closed || d.gens[key] != gen {
		d.mu.Unlock()
		return
	}
	delete(d.timers, key)
	d.mu.Unlock()

	task()
}

// Shutdown cancels all pending tasks. The Debouncer cannot be reused.
func (d *Debouncer[K]) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}
