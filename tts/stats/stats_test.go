package stats

import (
	"testing"
	"time"

	"github.com/dgnsrekt/readaloud/internal/clock"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{61, "01:01"},
		{3599, "59:59"},
		{6000, "100:00"},
		{-3, "00:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.secs); got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestLedgerOnlyAdvancesWhileRunning(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	l := NewLedger(c)

	c.Advance(3 * time.Second)
	if got := l.Elapsed(); got != 0 {
		t.Errorf("Elapsed() before Start = %v, want 0", got)
	}

	l.Start()
	c.Advance(2 * time.Second)
	l.Freeze()
	c.Advance(10 * time.Second)
	if got := l.Elapsed(); got != 2*time.Second {
		t.Errorf("Elapsed() after Freeze = %v, want 2s", got)
	}

	l.Start()
	l.Start()
	c.Advance(time.Second)
	if got := l.Elapsed(); got != 3*time.Second {
		t.Errorf("Elapsed() after restart = %v, want 3s", got)
	}

	l.AddUnits(4)
	l.AddUnits(-1)
	if got := l.Units(); got != 4 {
		t.Errorf("Units() = %d, want 4", got)
	}

	l.Reset()
	if l.Elapsed() != 0 || l.Units() != 0 || l.Running() {
		t.Errorf("Reset() left %v, %d units, running %v", l.Elapsed(), l.Units(), l.Running())
	}
}

func TestEstimatorUndefinedUntilProgress(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	l := NewLedger(c)
	e := NewEstimator(l)
	e.SetTotal(25)

	l.Start()
	s, _ := e.Recompute()
	if s.Rate != 0 || s.ETA != "00:00" || s.Elapsed != "00:00" {
		t.Errorf("Recompute() at start = %+v, want zero rate and clocks", s)
	}

	l.AddUnits(5)
	s, _ = e.Recompute()
	if s.Rate != 0 || s.ETA != "00:00" {
		t.Errorf("Recompute() with E=0 = %+v, want undefined rate", s)
	}

	c.Advance(1500 * time.Millisecond)
	s, _ = e.Recompute()
	if s.Rate != 300 || s.ETA != "00:04" || s.Elapsed != "00:01" {
		t.Errorf("Recompute() = %+v, want rate 300, ETA 00:04, elapsed 00:01", s)
	}
}

func TestEstimatorSteadyRate(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	l := NewLedger(c)
	e := NewEstimator(l)
	e.SetTotal(10)
	l.Start()

	var s Snapshot
	for i := 0; i < 5; i++ {
		c.Advance(time.Second)
		l.AddUnits(1)
		s, _ = e.Recompute()
		if s.Rate != 60 {
			t.Errorf("second %d: Rate = %d, want 60", i+1, s.Rate)
		}
	}
	if s.ETA != "00:05" {
		t.Errorf("ETA = %q, want 00:05", s.ETA)
	}
	if s.Elapsed != "00:05" {
		t.Errorf("Elapsed = %q, want 00:05", s.Elapsed)
	}
}

func TestEstimatorDampsUnchangedRate(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	l := NewLedger(c)
	e := NewEstimator(l)
	e.SetTotal(1000)
	l.Start()

	c.Advance(3 * time.Second)
	l.AddUnits(10)
	first, changed := e.Recompute()
	if !changed || first.Rate != 200 {
		t.Fatalf("Recompute() = %+v, %v, want rate 200 changed", first, changed)
	}

	again, changed := e.Recompute()
	if changed || again != first {
		t.Errorf("Recompute() without progress = %+v, %v, want unchanged", again, changed)
	}
}

func TestEstimatorResetClearsPublishedRate(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	l := NewLedger(c)
	e := NewEstimator(l)
	e.SetTotal(10)
	l.Start()
	c.Advance(2 * time.Second)
	l.AddUnits(4)
	e.Recompute()

	l.Reset()
	e.Reset()
	s, _ := e.Recompute()
	if s.Rate != 0 || s.ETA != "00:00" || s.Elapsed != "00:00" {
		t.Errorf("Recompute() after reset = %+v, want zeroes", s)
	}
	if e.Total() != 0 {
		t.Errorf("Total() = %d, want 0", e.Total())
	}
}
