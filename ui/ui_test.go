package ui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/document"
	"github.com/dgnsrekt/readaloud/tts/engines/mock"
)

type testModel struct {
	m      model
	engine *mock.MockEngine
	ctrl   *tts.Controller

	mu   sync.Mutex
	msgs []tea.Msg
}

func newTestModel(t *testing.T, text string) *testModel {
	t.Helper()
	engine := mock.New()
	ctrl := tts.NewController(engine, document.FromText(text, 0), tts.DefaultControllerConfig())
	tm := &testModel{engine: engine, ctrl: ctrl}
	ctrl.OnNotify(func(msg tea.Msg) {
		tm.mu.Lock()
		tm.msgs = append(tm.msgs, msg)
		tm.mu.Unlock()
	})
	t.Cleanup(ctrl.Dispose)

	tm.m = newModel(context.Background(), Config{}, ctrl)
	tm.m.initController()
	tm.update(tea.WindowSizeMsg{Width: 40, Height: 10})
	return tm
}

// update feeds msg to the model, then feeds back whatever the returned
// commands produce. Timers are abandoned.
func (tm *testModel) update(msg tea.Msg) {
	next, cmd := tm.m.Update(msg)
	tm.m = next.(model)
	for _, msg := range run(cmd) {
		tm.update(msg)
	}
}

func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var msgs []tea.Msg
			for _, c := range batch {
				msgs = append(msgs, run(c)...)
			}
			return msgs
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// deliver replays controller notifications into the model.
func (tm *testModel) deliver() {
	tm.mu.Lock()
	msgs := tm.msgs
	tm.msgs = nil
	tm.mu.Unlock()
	for _, msg := range msgs {
		tm.update(msg)
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSpaceTogglesPlayback(t *testing.T) {
	tm := newTestModel(t, "Hello world")

	tm.update(keyRunes(" "))
	if got := tm.ctrl.State(); got != tts.StateSpeaking {
		t.Fatalf("State() = %v, want speaking", got)
	}
	tm.deliver()
	if tm.m.state != tts.StateSpeaking {
		t.Errorf("model state = %v, want speaking", tm.m.state)
	}

	tm.update(keyRunes(" "))
	if got := tm.ctrl.State(); got != tts.StatePaused {
		t.Errorf("State() = %v, want paused", got)
	}

	tm.update(keyRunes("s"))
	if got := tm.ctrl.State(); got != tts.StateIdle {
		t.Errorf("State() = %v, want idle", got)
	}
}

func TestCaretSelectsStart(t *testing.T) {
	tm := newTestModel(t, "Hello world")

	tm.update(tea.KeyMsg{Type: tea.KeyRight})
	if tm.m.caret != 6 {
		t.Fatalf("caret = %d, want 6", tm.m.caret)
	}
	tm.update(keyRunes(" "))

	u, ok := tm.engine.Last()
	if !ok {
		t.Fatal("engine received no utterance")
	}
	if u.Text != "world" {
		t.Errorf("utterance = %q, want %q", u.Text, "world")
	}

	tm.update(tea.KeyMsg{Type: tea.KeyLeft})
	if tm.m.caret != 0 {
		t.Errorf("caret after left = %d, want 0", tm.m.caret)
	}
}

func TestHighlightAndCompletion(t *testing.T) {
	tm := newTestModel(t, "Hello world")
	tm.update(keyRunes(" "))
	tm.deliver()

	tm.update(tts.HighlightMsg{Range: document.Range{Start: 6, Length: 5}})
	if tm.m.caret != 6 {
		t.Errorf("caret = %d, want 6", tm.m.caret)
	}

	tm.update(tts.StateChangedMsg{State: tts.StateIdle, PrevState: tts.StateSpeaking, Reason: "complete"})
	if tm.m.caret != 0 {
		t.Errorf("caret after completion = %d, want 0", tm.m.caret)
	}
	if tm.m.statusMessage != "Finished reading" {
		t.Errorf("statusMessage = %q, want Finished reading", tm.m.statusMessage)
	}
}

func TestDocumentLockedWhileSpeaking(t *testing.T) {
	tm := newTestModel(t, "Hello world")
	tm.update(keyRunes(" "))
	tm.deliver()

	tm.update(keyRunes("e"))
	if tm.m.statusMessage != noticeText(tts.ErrDocumentLocked) || !tm.m.statusError {
		t.Errorf("statusMessage = %q, want locked notice", tm.m.statusMessage)
	}

	replacement := document.New([]string{"Other text"})
	tm.update(documentLoadedMsg{doc: replacement, note: "other"})
	if tm.m.doc == replacement {
		t.Error("document replaced while speaking")
	}

	tm.update(keyRunes("s"))
	tm.deliver()
	tm.update(documentLoadedMsg{doc: replacement, note: "other"})
	if tm.m.doc != replacement || tm.ctrl.Document() != replacement {
		t.Error("document not replaced while idle")
	}
	if tm.m.stats.Total != 10 {
		t.Errorf("stats.Total = %d, want 10", tm.m.stats.Total)
	}
}

func TestLoadErrorShowsMessage(t *testing.T) {
	tm := newTestModel(t, "Hello world")
	tm.update(documentLoadedMsg{err: errors.New("permission denied")})
	if !tm.m.statusError || tm.m.statusMessage != "Unable to load document: permission denied" {
		t.Errorf("statusMessage = %q", tm.m.statusMessage)
	}

	tm.update(tts.NoticeMsg{Err: tts.ErrEmptyInput, Recoverable: true})
	if tm.m.statusMessage != "Nothing to read" {
		t.Errorf("statusMessage = %q, want Nothing to read", tm.m.statusMessage)
	}

	id := tm.m.statusMessageID
	tm.update(statusMessageTimeoutMsg{id: id - 1})
	if tm.m.statusMessage == "" {
		t.Error("stale timeout cleared the message")
	}
	tm.update(statusMessageTimeoutMsg{id: id})
	if tm.m.statusMessage != "" {
		t.Errorf("statusMessage = %q, want cleared", tm.m.statusMessage)
	}
}

func TestAdjustKeys(t *testing.T) {
	tm := newTestModel(t, "Hello world")

	tm.update(keyRunes("+"))
	if got := tm.ctrl.Params().Rate; got < 1.09 || got > 1.11 {
		t.Errorf("Rate = %v, want 1.1", got)
	}
	tm.update(keyRunes("<"))
	if got := tm.ctrl.Params().Volume; got < 0.89 || got > 0.91 {
		t.Errorf("Volume = %v, want 0.9", got)
	}
	tm.deliver()
	if tm.m.params != tm.ctrl.Params() {
		t.Errorf("model params = %+v, want %+v", tm.m.params, tm.ctrl.Params())
	}

	tm.update(keyRunes("v"))
	if got := tm.ctrl.Params().Voice; got != "mock-en-us" {
		t.Errorf("Voice = %q, want mock-en-us", got)
	}
}

func TestScrollAnimation(t *testing.T) {
	tm := newTestModel(t, "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty")
	tm.update(tea.WindowSizeMsg{Width: 12, Height: 4})
	if len(tm.m.lines) <= tm.m.viewport.Height {
		t.Fatalf("layout has %d lines, want more than %d", len(tm.m.lines), tm.m.viewport.Height)
	}

	last := len(tm.m.lines) - 1
	next, _ := tm.m.Update(scrollMsg{row: last})
	tm.m = next.(model)
	if !tm.m.scrolling {
		t.Fatal("scrolling = false, want true")
	}

	for i := 0; i < 100 && tm.m.scrolling; i++ {
		next, _ := tm.m.Update(scrollTickMsg{})
		tm.m = next.(model)
	}
	if tm.m.scrolling {
		t.Fatal("scroll animation did not finish")
	}
	if tm.m.viewport.YOffset != tm.m.scrollTarget {
		t.Errorf("YOffset = %d, want %d", tm.m.viewport.YOffset, tm.m.scrollTarget)
	}
}

func TestNextVoice(t *testing.T) {
	voices := []tts.Voice{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	tests := []struct {
		current string
		want    string
	}{
		{"", "a"},
		{"a", "b"},
		{"c", "a"},
		{"missing", "a"},
	}
	for _, tt := range tests {
		got, ok := nextVoice(voices, tt.current)
		if !ok || got.ID != tt.want {
			t.Errorf("nextVoice(%q) = %q, want %q", tt.current, got.ID, tt.want)
		}
	}
	if _, ok := nextVoice(nil, ""); ok {
		t.Error("nextVoice(nil) ok = true, want false")
	}
}
