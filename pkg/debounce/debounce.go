// Package debounce collapses bursts of triggers into a single trailing call.
package debounce

import (
	"sync"
	"time"
)

// DefaultInterval is the quiet period used by the address field.
const DefaultInterval = 500 * time.Millisecond

// Debouncer runs its action once the trigger has been quiet for the interval.
// Each Debouncer owns its own timer, so separate widgets never share one.
type Debouncer struct {
	interval time.Duration
	action   func()
	timer    *time.Timer
	mu       sync.Mutex
}

// New wraps action. A non-positive interval falls back to DefaultInterval.
func New(interval time.Duration, action func()) *Debouncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Debouncer{
		interval: interval,
		action:   action,
	}
}

// Trigger cancels any pending run and schedules a new one.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.action)
}

// Stop drops the pending run, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Interval reports the quiet period.
func (d *Debouncer) Interval() time.Duration {
	return d.interval
}
