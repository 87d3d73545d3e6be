// Package tts reads a document aloud through a speech engine while keeping
// the highlighted word, the resume position and the reading statistics on a
// single authoritative offset.
package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/readaloud/internal/clock"
	"github.com/dgnsrekt/readaloud/tts/debounce"
	"github.com/dgnsrekt/readaloud/tts/document"
	"github.com/dgnsrekt/readaloud/tts/stats"
	ttssync "github.com/dgnsrekt/readaloud/tts/sync"
)

// Stats is the statistics observer exposed to the UI.
type Stats struct {
	Elapsed  string // Active speaking time, MM:SS
	Rate     int    // Readable units per minute
	ETA      string // Estimated remaining time, MM:SS
	Units    int    // Readable units passed by the highlight
	Total    int    // Characters in the document
	Readable int    // Letters and digits in the document
}

// ControllerConfig holds configuration for the controller.
type ControllerConfig struct {
	DebounceWindow time.Duration // Quiet period before a parameter restart
	StatsInterval  time.Duration // Statistics refresh cadence while speaking
	Params         Params        // Initial voice parameters
	Clock          clock.Clock   // Time source, nil for the real clock
}

// DefaultControllerConfig returns a sensible default configuration.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		DebounceWindow: debounce.DefaultWindow,
		StatsInterval:  time.Second,
		Params:         DefaultParams(),
	}
}

// session is one engine utterance covering the document suffix from start.
type session struct {
	id      SessionID
	start   int
	current int
	params  Params
	begun   bool // Begin has been issued to the engine
}

// Controller is the playback synchronizer. It owns the single engine session,
// the highlight and the timing ledger.
//
// Engine callbacks may arrive on any goroutine. Notifications are delivered to
// the notifier after the controller lock is released.
type Controller struct {
	engine    Engine
	doc       *document.Document
	config    ControllerConfig
	clock     clock.Clock
	machine   *StateMachine
	ledger    *stats.Ledger
	estimator *stats.Estimator
	highlight *ttssync.Manager
	debouncer *debounce.Debouncer

	mu          sync.Mutex
	params      Params
	session     *session
	lastID      SessionID
	stale       uint64
	restarts    int
	statsTimer  clock.Timer
	statsGen    uint64
	initialized bool
	disposed    bool
	engineErr   error

	notify func(tea.Msg)
	outbox []tea.Msg
}

// NewController creates a controller reading doc through engine.
func NewController(engine Engine, doc *document.Document, config ControllerConfig) *Controller {
	defaults := DefaultControllerConfig()
	if config.DebounceWindow <= 0 {
		config.DebounceWindow = defaults.DebounceWindow
	}
	if config.StatsInterval <= 0 {
		config.StatsInterval = defaults.StatsInterval
	}
	if config.Params == (Params{}) {
		config.Params = defaults.Params
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if doc == nil {
		doc = document.New(nil)
	}

	ledger := stats.NewLedger(config.Clock)
	estimator := stats.NewEstimator(ledger)

	c := &Controller{
		engine:    engine,
		doc:       doc,
		config:    config,
		clock:     config.Clock,
		machine:   NewStateMachine(),
		ledger:    ledger,
		estimator: estimator,
		highlight: ttssync.NewManager(doc, ledger, estimator),
		debouncer: debounce.New(config.Clock, config.DebounceWindow),
		params:    config.Params,
	}

	c.setupStateMachine()
	return c
}

// OnNotify registers the receiver of controller messages.
func (c *Controller) OnNotify(fn func(tea.Msg)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = fn
}

// SetScroller attaches the surface that brings the highlight into view.
func (c *Controller) SetScroller(s ttssync.Scroller) {
	c.highlight.SetScroller(s)
}

// Init checks the engine. An unavailable engine is reported once, here, and
// every later Play fails with the same error. Canceling ctx disposes the
// controller.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.unlockAndFlush()

	if c.disposed {
		return ErrDisposed
	}
	if c.initialized {
		return c.engineErr
	}
	c.initialized = true
	c.doc.SetEditable(true)

	switch {
	case c.engine == nil:
		c.engineErr = ErrEngineUnavailable
	default:
		if err := c.engine.Available(); err != nil {
			c.engineErr = fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
	}

	if ctx != nil {
		context.AfterFunc(ctx, c.Dispose)
	}

	if c.engineErr != nil {
		log.Error("speech engine unavailable", "err", c.engineErr)
		c.post(NoticeMsg{
			Err:         NewTTSError(c.engineErr, "engine", "init").WithSeverity(SeverityCritical),
			Recoverable: false,
		})
		return c.engineErr
	}

	log.Debug("controller initialized", "voices", len(c.engine.Voices()))
	return nil
}

// Dispose stops playback and releases the engine. The controller cannot be
// used afterwards.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.unlockAndFlush()

	if c.disposed {
		return
	}
	c.stopLocked("dispose")
	c.debouncer.CancelPending()
	c.disposed = true

	if closer, ok := c.engine.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Warn("engine close failed", "err", err)
		}
	}
}

// Play starts reading at caret, or at the beginning when caret is outside the
// document. It does nothing unless the controller is idle.
func (c *Controller) Play(caret int) error {
	c.mu.Lock()
	defer c.unlockAndFlush()
	return c.playLocked(caret)
}

// Pause suspends reading. It does nothing unless speaking.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.unlockAndFlush()
	c.pauseLocked()
}

// Resume continues a paused session, restarting it if parameters changed
// while paused. It does nothing unless paused.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.unlockAndFlush()
	c.resumeLocked()
}

// Stop ends reading and returns to idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.unlockAndFlush()
	c.stopLocked("user")
}

// Toggle plays when idle, pauses when speaking and resumes when paused.
func (c *Controller) Toggle(caret int) error {
	c.mu.Lock()
	defer c.unlockAndFlush()

	switch c.machine.Current() {
	case StateSpeaking:
		c.pauseLocked()
	case StatePaused:
		c.resumeLocked()
	default:
		return c.playLocked(caret)
	}
	return nil
}

// SetParameter changes voice, rate, pitch or volume by name.
func (c *Controller) SetParameter(name, value string) error {
	c.mu.Lock()
	defer c.unlockAndFlush()

	p := c.params
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "voice":
		p.Voice = strings.TrimSpace(value)
	case "rate", "pitch", "volume":
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidParameter, key, value)
		}
		setNumeric(&p, key, f)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return c.setParamsLocked(p)
}

// Adjust nudges rate, pitch or volume by delta, clamped to the allowed range.
func (c *Controller) Adjust(name string, delta float64) error {
	c.mu.Lock()
	defer c.unlockAndFlush()

	p := c.params
	key := strings.ToLower(name)
	var cur, lo, hi float64
	switch key {
	case "rate":
		cur, lo, hi = p.Rate, 0.1, 10.0
	case "pitch":
		cur, lo, hi = p.Pitch, 0.0, 2.0
	case "volume":
		cur, lo, hi = p.Volume, 0.0, 1.0
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	next := math.Round((cur+delta)*10) / 10
	setNumeric(&p, key, math.Min(math.Max(next, lo), hi))
	return c.setParamsLocked(p)
}

// SetParams replaces every parameter at once.
func (c *Controller) SetParams(p Params) error {
	c.mu.Lock()
	defer c.unlockAndFlush()
	return c.setParamsLocked(p)
}

// SetVoice selects the voice for the next session.
func (c *Controller) SetVoice(voice string) error {
	return c.SetParameter("voice", voice)
}

// SetRate sets the speed multiplier.
func (c *Controller) SetRate(rate float64) error {
	return c.SetParameter("rate", strconv.FormatFloat(rate, 'f', -1, 64))
}

// SetPitch sets the pitch multiplier.
func (c *Controller) SetPitch(pitch float64) error {
	return c.SetParameter("pitch", strconv.FormatFloat(pitch, 'f', -1, 64))
}

// SetVolume sets the volume.
func (c *Controller) SetVolume(volume float64) error {
	return c.SetParameter("volume", strconv.FormatFloat(volume, 'f', -1, 64))
}

// SetDocument replaces the document. Only allowed while idle.
func (c *Controller) SetDocument(doc *document.Document) error {
	c.mu.Lock()
	defer c.unlockAndFlush()

	if c.machine.Current() != StateIdle {
		return ErrDocumentLocked
	}
	c.doc = doc
	doc.SetEditable(true)
	c.highlight.SetDocument(doc)
	c.post(StatsMsg{Stats: c.statsLocked()})
	return nil
}

// Document returns the document being read.
func (c *Controller) Document() *document.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc
}

// State returns the playback state.
func (c *Controller) State() StateType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Current()
}

// Snapshot returns the full controller state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Current: c.machine.Current(),
		Params:  c.params,
		Pending: c.debouncer.Pending(),
	}
	if s := c.session; s != nil {
		st.Session = s.id
		st.StartOffset = s.start
		st.CurrentOffset = s.current
	}
	return st
}

// CurrentOffset returns the offset of the last spoken unit, 0 when idle.
func (c *Controller) CurrentOffset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	return c.session.current
}

// Session returns the live session id, 0 when idle.
func (c *Controller) Session() SessionID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	return c.session.id
}

// Params returns the parameters for the next session.
func (c *Controller) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Stats returns the latest statistics.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statsLocked()
}

// StaleCallbacks returns how many callbacks from superseded sessions were
// dropped.
func (c *Controller) StaleCallbacks() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// Restarts returns how many parameter restarts have happened.
func (c *Controller) Restarts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restarts
}

// Voices lists the engine's voices.
func (c *Controller) Voices() []Voice {
	if c.engine == nil {
		return nil
	}
	return c.engine.Voices()
}

func (c *Controller) setupStateMachine() {
	c.machine.OnExit(StateIdle, func() {
		c.doc.SetEditable(false)
	})
	c.machine.OnEnter(StateIdle, func() {
		c.doc.SetEditable(true)
	})
}

func (c *Controller) ready() error {
	switch {
	case c.disposed:
		return ErrDisposed
	case !c.initialized:
		return ErrNotInitialized
	}
	return c.engineErr
}

func (c *Controller) playLocked(caret int) error {
	if err := c.ready(); err != nil {
		return err
	}
	if c.machine.Current() != StateIdle {
		return nil
	}
	if c.doc.IsBlank() {
		log.Debug("play rejected", "reason", "empty document")
		return ErrEmptyInput
	}

	start := 0
	if caret >= 0 && caret < c.doc.Len() {
		start = caret
	}

	c.ledger.Reset()
	c.estimator.Reset()
	c.highlight.Reset()
	c.estimator.SetTotal(c.doc.ReadableFrom(start))

	c.machine.Transition(StateSpeaking)
	if err := c.beginLocked(start, true); err != nil {
		c.failLocked(err)
		return nil
	}
	c.ledger.Start()
	c.armStatsLocked()

	c.postState(StateIdle, "")
	c.publishStatsLocked(true)
	return nil
}

func (c *Controller) pauseLocked() {
	if c.machine.Current() != StateSpeaking {
		return
	}
	s := c.session
	if err := c.engine.Pause(s.id); err != nil {
		c.failLocked(NewTTSError(err, "engine", "pause").WithSession(s.id))
		return
	}
	c.ledger.Freeze()
	c.stopStatsLocked()
	c.machine.Transition(StatePaused)

	log.Debug("paused", "session", s.id, "offset", s.current)
	c.postState(StateSpeaking, "")
	c.publishStatsLocked(true)
}

func (c *Controller) resumeLocked() {
	if c.machine.Current() != StatePaused {
		return
	}
	s := c.session
	pending := c.debouncer.CancelPending()

	var err error
	switch {
	case pending && s.begun:
		err = c.restartLocked(true)
	case !s.begun:
		s.params = c.params
		err = c.beginSessionLocked(s)
	default:
		if rerr := c.engine.Resume(s.id); rerr != nil {
			err = NewTTSError(rerr, "engine", "resume").WithSession(s.id)
		}
	}
	if err != nil {
		c.failLocked(err)
		return
	}

	c.ledger.Start()
	c.armStatsLocked()
	c.machine.Transition(StateSpeaking)

	log.Debug("resumed", "session", c.session.id, "offset", c.session.current)
	c.postState(StatePaused, "")
	c.publishStatsLocked(true)
}

func (c *Controller) stopLocked(reason string) {
	c.debouncer.CancelPending()

	prev := c.machine.Current()
	if prev == StateIdle {
		return
	}

	if s := c.session; s != nil && s.begun {
		if err := c.engine.Cancel(s.id); err != nil {
			log.Warn("cancel failed", "session", s.id, "err", err)
		}
	}
	c.session = nil
	c.stopStatsLocked()
	c.highlight.Reset()
	c.ledger.Reset()
	c.estimator.Reset()
	c.machine.Transition(StateIdle)

	log.Debug("stopped", "reason", reason)
	c.postState(prev, reason)
	c.publishStatsLocked(true)
}

func (c *Controller) failLocked(err error) {
	log.Error("playback failed", "err", err)
	c.stopLocked("error")

	var te *TTSError
	if !errors.As(err, &te) {
		te = NewTTSError(err, "controller", "")
	}
	c.post(NoticeMsg{Err: te, Recoverable: te.IsRecoverable()})
}

// beginLocked opens a new session at start. The engine is only asked to
// speak when begin is true.
func (c *Controller) beginLocked(start int, begin bool) error {
	c.lastID++
	s := &session{
		id:      c.lastID,
		start:   start,
		current: start,
		params:  c.params,
	}
	c.session = s
	if !begin {
		return nil
	}
	return c.beginSessionLocked(s)
}

func (c *Controller) beginSessionLocked(s *session) error {
	u := Utterance{
		Session: s.id,
		Text:    c.doc.TextFrom(s.start),
		Params:  s.params,
	}
	if err := c.engine.Begin(u, listener{c}); err != nil {
		return NewTTSError(err, "engine", "begin").WithSession(s.id)
	}
	s.begun = true
	log.Debug("session begun", "session", s.id, "offset", s.start, "voice", s.params.Voice, "rate", s.params.Rate)
	return nil
}

// restartLocked replaces the session with one starting at the frozen current
// offset. The ledger and the readable total carry over.
func (c *Controller) restartLocked(begin bool) error {
	old := c.session
	offset := old.current
	if old.begun {
		if err := c.engine.Cancel(old.id); err != nil {
			log.Warn("cancel failed", "session", old.id, "err", err)
		}
	}
	if err := c.beginLocked(offset, begin); err != nil {
		return err
	}
	c.restarts++

	log.Debug("session restarted", "old", old.id, "new", c.session.id, "offset", offset)
	c.post(RestartedMsg{Session: c.session.id, Offset: offset, Params: c.params})
	return nil
}

// applyPending runs when the parameter debounce window elapses. It only
// restarts s; a session begun after the change was scheduled already uses
// the new parameters.
func (c *Controller) applyPending(s *session) {
	c.mu.Lock()
	defer c.unlockAndFlush()

	if c.disposed || c.session == nil || c.session != s {
		return
	}
	state := c.machine.Current()
	if err := c.restartLocked(state == StateSpeaking); err != nil {
		c.failLocked(err)
		return
	}
	c.machine.Transition(state)
}

func (c *Controller) setParamsLocked(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Voice != "" && c.engine != nil {
		if voices := c.engine.Voices(); len(voices) > 0 && !hasVoice(voices, p.Voice) {
			return fmt.Errorf("%w: %q", ErrVoiceNotFound, p.Voice)
		}
	}
	if p == c.params {
		return nil
	}
	c.params = p

	active := c.machine.Current() != StateIdle && !c.disposed
	if active {
		s := c.session
		c.debouncer.Schedule(func() { c.applyPending(s) })
	}
	c.post(ParamsChangedMsg{Params: p, Pending: active})
	return nil
}

func (c *Controller) onProgress(id SessionID, start, length int, kind UnitKind) {
	c.mu.Lock()
	defer c.unlockAndFlush()

	s := c.session
	if s == nil || s.id != id {
		c.dropStaleLocked(id, "progress")
		return
	}
	if kind != UnitWord && kind != UnitSentence {
		return
	}

	abs := s.start + start
	if abs < s.current {
		log.Debug("progress went backwards", "session", id, "offset", abs, "current", s.current)
		return
	}
	s.current = abs

	res, err := c.highlight.Highlight(abs, length)
	if errors.Is(err, document.ErrOutOfRange) {
		c.stopLocked("complete")
		return
	}
	if err != nil {
		c.failLocked(err)
		return
	}

	c.post(HighlightMsg{Session: id, Range: res.Range, Segment: res.Segment})
	if res.StatsChanged {
		c.post(StatsMsg{Stats: c.statsLocked()})
	}
}

func (c *Controller) onComplete(id SessionID) {
	c.mu.Lock()
	defer c.unlockAndFlush()

	if s := c.session; s == nil || s.id != id {
		c.dropStaleLocked(id, "complete")
		return
	}
	c.stopLocked("complete")
}

func (c *Controller) onError(id SessionID, err error) {
	c.mu.Lock()
	defer c.unlockAndFlush()

	if s := c.session; s == nil || s.id != id {
		c.dropStaleLocked(id, "error")
		return
	}
	c.failLocked(NewTTSError(err, "engine", "speak").WithSession(id))
}

func (c *Controller) dropStaleLocked(id SessionID, what string) {
	c.stale++
	log.Debug("dropped stale callback", "session", id, "callback", what, "err", ErrStaleCallback)
}

func (c *Controller) armStatsLocked() {
	c.stopStatsLocked()
	gen := c.statsGen
	c.statsTimer = c.clock.AfterFunc(c.config.StatsInterval, func() { c.onStatsTick(gen) })
}

func (c *Controller) stopStatsLocked() {
	if c.statsTimer != nil {
		c.statsTimer.Stop()
		c.statsTimer = nil
	}
	c.statsGen++
}

func (c *Controller) onStatsTick(gen uint64) {
	c.mu.Lock()
	defer c.unlockAndFlush()

	if gen != c.statsGen || c.machine.Current() != StateSpeaking {
		return
	}
	c.publishStatsLocked(false)
	c.statsTimer = c.clock.AfterFunc(c.config.StatsInterval, func() { c.onStatsTick(gen) })
}

func (c *Controller) publishStatsLocked(force bool) {
	if _, changed := c.estimator.Recompute(); changed || force {
		c.post(StatsMsg{Stats: c.statsLocked()})
	}
}

func (c *Controller) statsLocked() Stats {
	snap := c.estimator.Last()
	counts := c.doc.Counts()
	return Stats{
		Elapsed:  snap.Elapsed,
		Rate:     snap.Rate,
		ETA:      snap.ETA,
		Units:    snap.Units,
		Total:    counts.Total,
		Readable: counts.Readable,
	}
}

func (c *Controller) postState(prev StateType, reason string) {
	msg := StateChangedMsg{State: c.machine.Current(), PrevState: prev, Reason: reason}
	if c.session != nil {
		msg.Session = c.session.id
	}
	c.post(msg)
}

func (c *Controller) post(msg tea.Msg) {
	c.outbox = append(c.outbox, msg)
}

// unlockAndFlush releases the lock, then delivers queued messages.
func (c *Controller) unlockAndFlush() {
	out := c.outbox
	c.outbox = nil
	notify := c.notify
	c.mu.Unlock()

	if notify == nil {
		return
	}
	for _, msg := range out {
		notify(msg)
	}
}

func setNumeric(p *Params, key string, v float64) {
	switch key {
	case "rate":
		p.Rate = v
	case "pitch":
		p.Pitch = v
	case "volume":
		p.Volume = v
	}
}

func hasVoice(voices []Voice, id string) bool {
	for _, v := range voices {
		if v.ID == id {
			return true
		}
	}
	return false
}

// listener adapts engine callbacks to the controller without exporting them.
type listener struct {
	c *Controller
}

func (l listener) OnProgress(id SessionID, start, length int, kind UnitKind) {
	l.c.onProgress(id, start, length, kind)
}

func (l listener) OnComplete(id SessionID) {
	l.c.onComplete(id)
}

func (l listener) OnError(id SessionID, err error) {
	l.c.onError(id, err)
}
