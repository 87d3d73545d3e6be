// Package mock provides a speech engine that reports word progress on a clock
// without producing audio. It backs tests and the "mock" engine setting.
package mock

import (
	"sync"
	"time"

	"github.com/dgnsrekt/readaloud/internal/clock"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/sentence"
)

// MockEngine implements tts.Engine.
//
// With a positive words-per-minute setting it reports each word of the
// utterance in turn on its clock. With zero it stays silent and tests drive
// it through Emit, Complete and Fail.
type MockEngine struct {
	mu       sync.Mutex
	clock    clock.Clock
	interval time.Duration // Delay between words at rate 1.0
	voices   []tts.Voice

	// Control for testing
	unavailable error
	failure     error

	sessions   map[tts.SessionID]*session
	listeners  map[tts.SessionID]tts.Listener
	utterances []tts.Utterance
	calls      map[string]int
}

type session struct {
	u        tts.Utterance
	words    []sentence.Span
	next     int
	paused   bool
	canceled bool
	timer    clock.Timer
}

// New creates a silent mock engine on the real clock.
func New() *MockEngine {
	return &MockEngine{
		clock: clock.New(),
		voices: []tts.Voice{
			{ID: "mock-en-us", Name: "Mock Ava", Language: "en-US", Gender: "female"},
			{ID: "mock-en-gb", Name: "Mock Oliver", Language: "en-GB", Gender: "male"},
			{ID: "mock-fr-fr", Name: "Mock Chloé", Language: "fr-FR", Gender: "female"},
		},
		sessions:  make(map[tts.SessionID]*session),
		listeners: make(map[tts.SessionID]tts.Listener),
		calls:     make(map[string]int),
	}
}

// NewAuto creates an engine that reports words at wordsPerMinute on c.
func NewAuto(c clock.Clock, wordsPerMinute int) *MockEngine {
	e := New()
	if c != nil {
		e.clock = c
	}
	e.SetWordsPerMinute(wordsPerMinute)
	return e
}

// SetWordsPerMinute sets the automatic pace. Zero disables it.
func (e *MockEngine) SetWordsPerMinute(wpm int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if wpm <= 0 {
		e.interval = 0
		return
	}
	e.interval = time.Minute / time.Duration(wpm)
}

// SetUnavailable makes Available report err.
func (e *MockEngine) SetUnavailable(err error) {
	e.mu.Lock()
	e.unavailable = err
	e.mu.Unlock()
}

// SetFailure makes every engine command fail with err.
func (e *MockEngine) SetFailure(err error) {
	e.mu.Lock()
	e.failure = err
	e.mu.Unlock()
}

// ClearFailure clears any configured failure.
func (e *MockEngine) ClearFailure() {
	e.SetFailure(nil)
}

// Available implements tts.Engine.
func (e *MockEngine) Available() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls["available"]++
	return e.unavailable
}

// Voices implements tts.Engine.
func (e *MockEngine) Voices() []tts.Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]tts.Voice, len(e.voices))
	copy(out, e.voices)
	return out
}

// Begin implements tts.Engine.
func (e *MockEngine) Begin(u tts.Utterance, l tts.Listener) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls["begin"]++
	if e.failure != nil {
		return e.failure
	}

	s := &session{u: u, words: sentence.Words(u.Text)}
	e.sessions[u.Session] = s
	e.listeners[u.Session] = l
	e.utterances = append(e.utterances, u)
	e.scheduleLocked(s)
	return nil
}

// Pause implements tts.Engine.
func (e *MockEngine) Pause(id tts.SessionID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls["pause"]++
	if e.failure != nil {
		return e.failure
	}
	s, ok := e.sessions[id]
	if !ok {
		return tts.ErrSessionNotFound
	}
	s.paused = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return nil
}

// Resume implements tts.Engine.
func (e *MockEngine) Resume(id tts.SessionID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls["resume"]++
	if e.failure != nil {
		return e.failure
	}
	s, ok := e.sessions[id]
	if !ok {
		return tts.ErrSessionNotFound
	}
	s.paused = false
	e.scheduleLocked(s)
	return nil
}

// Cancel implements tts.Engine. Canceling an unknown session succeeds.
func (e *MockEngine) Cancel(id tts.SessionID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls["cancel"]++
	if s, ok := e.sessions[id]; ok {
		s.canceled = true
		if s.timer != nil {
			s.timer.Stop()
		}
		delete(e.sessions, id)
	}
	return nil
}

// Emit reports progress for id as if the engine spoke a unit. It works for
// canceled sessions too, to simulate late callbacks.
func (e *MockEngine) Emit(id tts.SessionID, start, length int, kind tts.UnitKind) {
	if l := e.listener(id); l != nil {
		l.OnProgress(id, start, length, kind)
	}
}

// EmitWord reports the i-th word of the utterance for id.
func (e *MockEngine) EmitWord(id tts.SessionID, i int) {
	e.mu.Lock()
	var w sentence.Span
	found := false
	for _, u := range e.utterances {
		if u.Session == id {
			if ws := sentence.Words(u.Text); i >= 0 && i < len(ws) {
				w, found = ws[i], true
			}
			break
		}
	}
	e.mu.Unlock()

	if found {
		e.Emit(id, w.Start, w.Len(), tts.UnitWord)
	}
}

// Complete reports the end of the utterance for id.
func (e *MockEngine) Complete(id tts.SessionID) {
	if l := e.listener(id); l != nil {
		l.OnComplete(id)
	}
}

// Fail reports an engine error for id.
func (e *MockEngine) Fail(id tts.SessionID, err error) {
	if l := e.listener(id); l != nil {
		l.OnError(id, err)
	}
}

// Utterances returns every utterance passed to Begin, oldest first.
func (e *MockEngine) Utterances() []tts.Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]tts.Utterance, len(e.utterances))
	copy(out, e.utterances)
	return out
}

// Last returns the most recent utterance.
func (e *MockEngine) Last() (tts.Utterance, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.utterances) == 0 {
		return tts.Utterance{}, false
	}
	return e.utterances[len(e.utterances)-1], true
}

// IsPaused reports whether id is suspended.
func (e *MockEngine) IsPaused(id tts.SessionID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	return ok && s.paused
}

// IsLive reports whether id has begun and not been canceled or completed.
func (e *MockEngine) IsLive(id tts.SessionID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[id]
	return ok
}

// CallCount returns how many times the named command was called: available,
// begin, pause, resume or cancel.
func (e *MockEngine) CallCount(command string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[command]
}

func (e *MockEngine) listener(id tts.SessionID) tts.Listener {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listeners[id]
}

func (e *MockEngine) scheduleLocked(s *session) {
	if e.interval <= 0 || s.paused || s.canceled {
		return
	}
	rate := s.u.Params.Rate
	if rate <= 0 {
		rate = 1
	}
	d := time.Duration(float64(e.interval) / rate)
	id := s.u.Session
	s.timer = e.clock.AfterFunc(d, func() { e.step(id) })
}

// step reports the next word, or completion after the last one.
func (e *MockEngine) step(id tts.SessionID) {
	e.mu.Lock()
	s, ok := e.sessions[id]
	if !ok || s.paused || s.canceled {
		e.mu.Unlock()
		return
	}
	s.timer = nil
	l := e.listeners[id]

	if s.next >= len(s.words) {
		delete(e.sessions, id)
		e.mu.Unlock()
		l.OnComplete(id)
		return
	}

	w := s.words[s.next]
	s.next++
	e.scheduleLocked(s)
	e.mu.Unlock()

	l.OnProgress(id, w.Start, w.Len(), tts.UnitWord)
}
