package watch

import (
	"sync"
	"time"
)

// afterFunc is swapped in tests to drive timers by hand.
var afterFunc = time.AfterFunc

// Debouncer runs fn once activity has been quiet for delay.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	gen   uint64
	fn    func()
}

// NewDebouncer creates a Debouncer calling fn.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger restarts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = afterFunc(d.delay, func() { d.fire(gen) })
}

// Stop cancels a pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// fire runs fn unless a later Trigger or Stop superseded this timer. A timer
// that already fired cannot be stopped, so its generation decides.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	current := gen == d.gen
	if current {
		d.timer = nil
	}
	d.mu.Unlock()
	if current {
		d.fn()
	}
}
