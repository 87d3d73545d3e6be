// Package stats tracks elapsed speaking time and reading speed.
package stats

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dgnsrekt/readaloud/internal/clock"
)

// Ledger accumulates active speaking time and the readable units passed by
// the highlight. It survives parameter restarts and is only zeroed on stop.
type Ledger struct {
	mu      sync.Mutex
	clock   clock.Clock
	elapsed time.Duration
	since   time.Time
	running bool
	units   int
}

// NewLedger creates a stopped, empty ledger.
func NewLedger(c clock.Clock) *Ledger {
	if c == nil {
		c = clock.New()
	}
	return &Ledger{clock: c}
}

// Start begins accumulating time. Starting a running ledger does nothing.
func (l *Ledger) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.since = l.clock.Now()
	l.running = true
}

// Freeze stops accumulating time and keeps the total.
func (l *Ledger) Freeze() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.elapsed += l.clock.Now().Sub(l.since)
	l.running = false
}

// Reset stops the ledger and zeroes time and units.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.elapsed = 0
	l.running = false
	l.units = 0
}

// AddUnits records n more readable units.
func (l *Ledger) AddUnits(n int) {
	if n <= 0 {
		return
	}
	l.mu.Lock()
	l.units += n
	l.mu.Unlock()
}

// Elapsed returns the accumulated active time.
func (l *Ledger) Elapsed() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return l.elapsed + l.clock.Now().Sub(l.since)
	}
	return l.elapsed
}

// Units returns the readable units counted so far.
func (l *Ledger) Units() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.units
}

// Running reports whether time is accumulating.
func (l *Ledger) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Snapshot is the formatted statistics shown to the user.
type Snapshot struct {
	Elapsed string // MM:SS
	Rate    int    // readable units per minute, 0 when undefined
	ETA     string // MM:SS, 00:00 when undefined
	Units   int
	Total   int
}

// Estimator derives reading rate and remaining time from a Ledger.
//
// The rate is rounded to two decimals per second and only republished when
// that rounded value changes.
type Estimator struct {
	mu        sync.Mutex
	ledger    *Ledger
	total     int
	published float64
	defined   bool
	last      Snapshot
}

// NewEstimator creates an estimator reading from l.
func NewEstimator(l *Ledger) *Estimator {
	e := &Estimator{ledger: l}
	e.last = e.zero()
	return e
}

// SetTotal sets the readable units of the text being played.
func (e *Estimator) SetTotal(n int) {
	e.mu.Lock()
	e.total = n
	e.mu.Unlock()
}

// Total returns the readable units of the text being played.
func (e *Estimator) Total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total
}

// Reset clears the published rate and total.
func (e *Estimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.total = 0
	e.defined = false
	e.published = 0
	e.last = e.zero()
}

func (e *Estimator) zero() Snapshot {
	return Snapshot{Elapsed: FormatClock(0), ETA: FormatClock(0)}
}

// Last returns the most recently computed snapshot.
func (e *Estimator) Last() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Recompute refreshes the snapshot. changed reports whether anything visible
// differs from the previous snapshot.
func (e *Estimator) Recompute() (s Snapshot, changed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	secs := int(e.ledger.Elapsed() / time.Second)
	units := e.ledger.Units()

	s = Snapshot{
		Elapsed: FormatClock(secs),
		ETA:     FormatClock(0),
		Units:   units,
		Total:   e.total,
	}

	if secs > 0 && units > 0 && e.total > 0 {
		rate := math.Round(float64(units)/float64(secs)*100) / 100
		if !e.defined || rate != e.published {
			e.published = rate
			e.defined = rate > 0
		}
	} else {
		e.defined = false
		e.published = 0
	}

	if e.defined {
		s.Rate = int(math.Round(e.published * 60))
		remaining := max(e.total-units, 0)
		s.ETA = FormatClock(int(math.Floor(float64(remaining) / e.published)))
	}

	changed = s != e.last
	e.last = s
	return s, changed
}

// FormatClock renders seconds as MM:SS. Minutes are not wrapped at an hour.
func FormatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
