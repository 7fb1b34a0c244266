package preview

import (
	"sync"
	"time"
)

// DefaultDelay is the debounce window for coalescing preview recomputes
// triggered by bursts of edits.
const DefaultDelay = 150 * time.Millisecond

// Debouncer coalesces recompute requests: Request arms (or re-arms) a
// single-shot timer and only the last request within the delay window
// fires the callback. RequestNow bypasses the window for actions that
// must show results at once, cancelling any pending timer first.
//
// The deferred callback runs on the timer's goroutine, and a stopped
// timer may already have fired. The callback must therefore synchronize
// with the caller's own mutations itself.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer invoking fn after delay. A
// non-positive delay falls back to DefaultDelay.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Request schedules the callback after the delay window, replacing any
// pending request.
func (d *Debouncer) Request() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// RequestNow cancels any pending request and runs the callback
// synchronously.
func (d *Debouncer) RequestNow() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.fn()
}

// Stop cancels any pending request without running the callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
