package tts_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/readaloud/internal/clock"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/audio"
	"github.com/dgnsrekt/readaloud/tts/document"
	"github.com/dgnsrekt/readaloud/tts/engines"
)

var silentFormat = audio.Format{SampleRate: 1000, Channels: 1}

// silentSynth renders 10ms of silence per rune, or fails.
type silentSynth struct {
	name string
	err  error

	mu    sync.Mutex
	calls int
}

func (s *silentSynth) Name() string { return s.name }
func (s *silentSynth) Available() error { return nil }
func (s *silentSynth) Voices() []tts.Voice { return []tts.Voice{{ID: s.name}} }
func (s *silentSynth) Capabilities() engines.Capabilities { return engines.Capabilities{Rate: true} }

func (s *silentSynth) Synthesize(_ context.Context, text string, _ tts.Params) (engines.Clip, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return engines.Clip{}, s.err
	}
	d := time.Duration(len([]rune(text))) * 10 * time.Millisecond
	return engines.Clip{PCM: audio.Silence(silentFormat, d), Format: silentFormat}, nil
}

type recorder struct {
	mu         sync.Mutex
	highlights []document.Range
	states     []tts.StateChangedMsg
}

func (r *recorder) add(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch m := msg.(type) {
	case tts.HighlightMsg:
		r.highlights = append(r.highlights, m.Range)
	case tts.StateChangedMsg:
		r.states = append(r.states, m)
	}
}

func (r *recorder) finished() (tts.StateChangedMsg, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.states {
		if s.State == tts.StateIdle {
			return s, true
		}
	}
	return tts.StateChangedMsg{}, false
}

func waitIdle(t *testing.T, r *recorder) tts.StateChangedMsg {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s, ok := r.finished(); ok {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("playback did not finish")
	return tts.StateChangedMsg{}
}

func TestSynthEngineEndToEnd(t *testing.T) {
	primary := &silentSynth{name: "primary", err: errors.New("process died unexpectedly")}
	secondary := &silentSynth{name: "secondary"}
	synth := engines.NewFallback(primary, secondary, 1)
	out := audio.NewSimulated(clock.New(), silentFormat)
	engine := engines.NewSynthEngine(synth, out, engines.WithPollInterval(time.Millisecond))

	doc := document.New([]string{"One two. Three four."})
	c := tts.NewController(engine, doc, tts.DefaultControllerConfig())
	r := &recorder{}
	c.OnNotify(r.add)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(c.Dispose)

	if err := c.Play(0); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if doc.Editable() {
		t.Error("document editable while speaking")
	}

	end := waitIdle(t, r)
	if end.Reason != "complete" {
		t.Errorf("Reason = %q, want complete", end.Reason)
	}
	if !doc.Editable() {
		t.Error("document locked after completion")
	}

	want := []document.Range{{Start: 0, Length: 3}, {Start: 4, Length: 4}, {Start: 9, Length: 5}, {Start: 15, Length: 5}}
	r.mu.Lock()
	got := append([]document.Range(nil), r.highlights...)
	r.mu.Unlock()
	if len(got) != len(want) {
		t.Fatalf("highlights = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("highlight %d = %v, want %v", i, got[i], want[i])
		}
	}

	if out.Played() != 2 {
		t.Errorf("clips played = %d, want 2", out.Played())
	}
	primary.mu.Lock()
	defer primary.mu.Unlock()
	if primary.calls != 1 {
		t.Errorf("primary calls = %d, want 1", primary.calls)
	}
}
