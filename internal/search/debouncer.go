// Package search holds client-side helpers for interactive lead search.
package search

import (
	"sync"
	"time"
)

const DefaultQuietWindow = 300 * time.Millisecond

// Debouncer runs fn with the last query triggered once no new query has
// arrived for the quiet window. Each Trigger cancels the pending run.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	fn      func(query string)
	timer   *time.Timer
	seq     uint64
	stopped bool
}

func NewDebouncer(window time.Duration, fn func(query string)) *Debouncer {
	if window <= 0 {
		window = DefaultQuietWindow
	}
	return &Debouncer{window: window, fn: fn}
}

func (d *Debouncer) Trigger(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		// A timer that fired while a newer Trigger was stopping it is stale.
		if d.stopped || seq != d.seq {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()

		d.fn(query)

		d.mu.Lock()
		if seq == d.seq {
			d.timer = nil
		}
		d.mu.Unlock()
	})
}

// Stop cancels any pending run. Later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether the latest query is scheduled or still running.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
