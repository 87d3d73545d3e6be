// Package debounce coalesces bursts of calls into one deferred action.
package debounce

import (
	"sync"
	"time"

	"github.com/dgnsrekt/readaloud/internal/clock"
)

// DefaultWindow is the quiet period used when none is configured.
const DefaultWindow = 1500 * time.Millisecond

// Debouncer runs the most recently scheduled action once no new action has
// been scheduled for the quiet window.
type Debouncer struct {
	mu     sync.Mutex
	clock  clock.Clock
	window time.Duration
	timer  clock.Timer
	gen    uint64
}

// New creates a Debouncer on c. A non-positive window selects DefaultWindow.
func New(c clock.Clock, window time.Duration) *Debouncer {
	if c == nil {
		c = clock.New()
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{clock: c, window: window}
}

// Window returns the quiet period.
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// Schedule replaces any pending action with action and restarts the window.
func (d *Debouncer) Schedule(action func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() {
		d.mu.Lock()
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		action()
	})
}

// CancelPending drops the pending action. It reports whether one was pending.
func (d *Debouncer) CancelPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}

// Pending reports whether an action is waiting for the window to elapse.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
