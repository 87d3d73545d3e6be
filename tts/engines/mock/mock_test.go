package mock

import (
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/readaloud/internal/clock"
	"github.com/dgnsrekt/readaloud/tts"
)

type event struct {
	kind   string
	id     tts.SessionID
	start  int
	length int
}

type recorder struct {
	events []event
}

func (r *recorder) OnProgress(id tts.SessionID, start, length int, _ tts.UnitKind) {
	r.events = append(r.events, event{"progress", id, start, length})
}

func (r *recorder) OnComplete(id tts.SessionID) {
	r.events = append(r.events, event{kind: "complete", id: id})
}

func (r *recorder) OnError(id tts.SessionID, _ error) {
	r.events = append(r.events, event{kind: "error", id: id})
}

func TestAutoProgress(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	e := NewAuto(c, 60)
	r := &recorder{}

	u := tts.Utterance{Session: 1, Text: "one two", Params: tts.DefaultParams()}
	if err := e.Begin(u, r); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if len(r.events) != 0 {
		t.Fatal("Begin() reported progress synchronously")
	}

	c.Advance(time.Second)
	c.Advance(time.Second)
	c.Advance(time.Second)

	want := []event{
		{"progress", 1, 0, 3},
		{"progress", 1, 4, 3},
		{kind: "complete", id: 1},
	}
	if len(r.events) != len(want) {
		t.Fatalf("events = %v, want %v", r.events, want)
	}
	for i := range want {
		if r.events[i] != want[i] {
			t.Errorf("events[%d] = %v, want %v", i, r.events[i], want[i])
		}
	}
	if e.IsLive(1) {
		t.Error("IsLive() = true after completion")
	}
}

func TestRateScalesPace(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	e := NewAuto(c, 60)
	r := &recorder{}

	e.Begin(tts.Utterance{Session: 1, Text: "a b c", Params: tts.Params{Rate: 2}}, r)
	c.Advance(time.Second)

	if len(r.events) != 2 {
		t.Errorf("events after 1s at rate 2 = %d, want 2", len(r.events))
	}
}

func TestPauseResumeCancel(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	e := NewAuto(c, 60)
	r := &recorder{}

	e.Begin(tts.Utterance{Session: 7, Text: "a b c d", Params: tts.DefaultParams()}, r)
	c.Advance(time.Second)

	if err := e.Pause(7); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if !e.IsPaused(7) {
		t.Error("IsPaused() = false")
	}
	c.Advance(5 * time.Second)
	if len(r.events) != 1 {
		t.Errorf("events while paused = %d, want 1", len(r.events))
	}

	e.Resume(7)
	c.Advance(time.Second)
	if len(r.events) != 2 {
		t.Errorf("events after resume = %d, want 2", len(r.events))
	}

	e.Cancel(7)
	c.Advance(10 * time.Second)
	if len(r.events) != 2 {
		t.Errorf("events after cancel = %d, want 2", len(r.events))
	}
	if err := e.Pause(7); !errors.Is(err, tts.ErrSessionNotFound) {
		t.Errorf("Pause(canceled) error = %v, want ErrSessionNotFound", err)
	}
	if err := e.Cancel(7); err != nil {
		t.Errorf("Cancel(canceled) error = %v, want nil", err)
	}
}

func TestManualEmitAfterCancel(t *testing.T) {
	e := New()
	r := &recorder{}
	e.Begin(tts.Utterance{Session: 3, Text: "late words"}, r)
	e.Cancel(3)

	e.EmitWord(3, 1)
	e.Complete(3)

	if len(r.events) != 2 || r.events[0] != (event{"progress", 3, 5, 5}) {
		t.Errorf("events = %v, want late progress then complete", r.events)
	}
}

func TestFailureInjection(t *testing.T) {
	e := New()
	boom := errors.New("boom")
	e.SetFailure(boom)

	if err := e.Begin(tts.Utterance{Session: 1, Text: "x"}, &recorder{}); !errors.Is(err, boom) {
		t.Errorf("Begin() error = %v, want %v", err, boom)
	}
	e.ClearFailure()
	if err := e.Begin(tts.Utterance{Session: 2, Text: "x"}, &recorder{}); err != nil {
		t.Errorf("Begin() after ClearFailure error = %v", err)
	}
	if got := e.CallCount("begin"); got != 2 {
		t.Errorf("CallCount(begin) = %d, want 2", got)
	}

	e.SetUnavailable(boom)
	if err := e.Available(); !errors.Is(err, boom) {
		t.Errorf("Available() = %v, want %v", err, boom)
	}
}
