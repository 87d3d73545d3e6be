package engines

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/readaloud/internal/cache"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/audio"
	"github.com/dgnsrekt/readaloud/tts/sentence"
)

const (
	defaultPoll      = 20 * time.Millisecond
	defaultLookahead = 2
)

// SynthEngine implements tts.Engine on top of a Synthesizer and an audio
// Output. It synthesizes sentence by sentence, a few sentences ahead of
// playback, and reports each word when the playback position reaches its
// share of the sentence.
type SynthEngine struct {
	synth     Synthesizer
	out       audio.Output
	cache     *cache.Cache
	parser    *sentence.Parser
	poll      time.Duration
	lookahead int

	mu       sync.Mutex
	sessions map[tts.SessionID]*synthSession
	closed   bool
}

// Option configures a SynthEngine.
type Option func(*SynthEngine)

// WithCache stores synthesized clips in c.
func WithCache(c *cache.Cache) Option {
	return func(e *SynthEngine) { e.cache = c }
}

// WithPollInterval sets how often playback position is checked.
func WithPollInterval(d time.Duration) Option {
	return func(e *SynthEngine) {
		if d > 0 {
			e.poll = d
		}
	}
}

// WithLookahead sets how many sentences are synthesized ahead of playback.
func WithLookahead(n int) Option {
	return func(e *SynthEngine) {
		if n > 0 {
			e.lookahead = n
		}
	}
}

// NewSynthEngine creates an engine speaking through out.
func NewSynthEngine(s Synthesizer, out audio.Output, opts ...Option) *SynthEngine {
	e := &SynthEngine{
		synth:     s,
		out:       out,
		parser:    sentence.NewParser(),
		poll:      defaultPoll,
		lookahead: defaultLookahead,
		sessions:  make(map[tts.SessionID]*synthSession),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type synthSession struct {
	u      tts.Utterance
	l      tts.Listener
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	paused   bool
	playback audio.Playback
}

func (s *synthSession) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// setPlayback tracks the clip in flight. A clip started while paused is
// paused immediately.
func (s *synthSession) setPlayback(pb audio.Playback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playback = pb
	if pb != nil && s.paused {
		pb.Pause()
	}
}

// clip is a synthesized piece of the utterance.
type clip struct {
	span sentence.Span
	pcm  []byte
	err  error
}

// Synthesizer returns the wrapped synthesizer.
func (e *SynthEngine) Synthesizer() Synthesizer {
	return e.synth
}

// Available implements tts.Engine.
func (e *SynthEngine) Available() error {
	if e.out == nil {
		return errors.New("no audio output")
	}
	return e.synth.Available()
}

// Voices implements tts.Engine.
func (e *SynthEngine) Voices() []tts.Voice {
	return e.synth.Voices()
}

// Begin implements tts.Engine.
func (e *SynthEngine) Begin(u tts.Utterance, l tts.Listener) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return audio.ErrClosed
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &synthSession{u: u, l: l, ctx: ctx, cancel: cancel}
	e.sessions[u.Session] = s

	go e.run(s)
	return nil
}

// Pause implements tts.Engine.
func (e *SynthEngine) Pause(id tts.SessionID) error {
	s, err := e.session(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	if s.playback != nil {
		s.playback.Pause()
	}
	return nil
}

// Resume implements tts.Engine.
func (e *SynthEngine) Resume(id tts.SessionID) error {
	s, err := e.session(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	if s.playback != nil {
		s.playback.Resume()
	}
	return nil
}

// Cancel implements tts.Engine. It does not wait for synthesis in flight.
func (e *SynthEngine) Cancel(id tts.SessionID) error {
	e.mu.Lock()
	s, ok := e.sessions[id]
	delete(e.sessions, id)
	e.mu.Unlock()

	if !ok {
		return nil
	}
	s.cancel()
	s.mu.Lock()
	if s.playback != nil {
		s.playback.Close()
	}
	s.mu.Unlock()
	return nil
}

// Close cancels every session and releases the output and cache.
func (e *SynthEngine) Close() error {
	e.mu.Lock()
	ids := make([]tts.SessionID, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	e.closed = true
	e.mu.Unlock()

	for _, id := range ids {
		e.Cancel(id)
	}

	var errs []error
	if e.out != nil {
		errs = append(errs, e.out.Close())
	}
	if e.cache != nil {
		errs = append(errs, e.cache.Close())
	}
	return errors.Join(errs...)
}

func (e *SynthEngine) session(id tts.SessionID) (*synthSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	if !ok {
		return nil, tts.ErrSessionNotFound
	}
	return s, nil
}

func (e *SynthEngine) finish(id tts.SessionID) {
	e.mu.Lock()
	delete(e.sessions, id)
	e.mu.Unlock()
}

// run plays the utterance. Listener calls happen here, never under e.mu.
func (e *SynthEngine) run(s *synthSession) {
	defer e.finish(s.u.Session)

	spans := e.chunks(s.u.Text)
	clips := make(chan clip, e.lookahead)
	go e.produce(s, spans, clips)

	for c := range clips {
		if c.err != nil {
			if s.ctx.Err() == nil {
				s.l.OnError(s.u.Session, c.err)
			}
			return
		}
		if err := e.play(s, c); err != nil {
			if s.ctx.Err() == nil {
				s.l.OnError(s.u.Session, err)
			}
			return
		}
	}
	if s.ctx.Err() == nil {
		s.l.OnComplete(s.u.Session)
	}
}

// produce synthesizes spans in order, blocking when lookahead clips wait.
func (e *SynthEngine) produce(s *synthSession, spans []sentence.Span, out chan<- clip) {
	defer close(out)

	for _, span := range spans {
		pcm, err := e.synthesize(s.ctx, span.Text, s.u.Params)
		if err != nil {
			err = fmt.Errorf("%s: %w", e.synth.Name(), err)
		}
		select {
		case out <- clip{span: span, pcm: pcm, err: err}:
		case <-s.ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// synthesize returns PCM in the output format, from the cache if possible.
func (e *SynthEngine) synthesize(ctx context.Context, text string, p tts.Params) ([]byte, error) {
	format := e.out.Format()
	key := cache.Key(e.synth.Name()+"@"+format.String(), p.Voice, p.Rate, p.Pitch, text)
	if e.cache != nil {
		if pcm, ok := e.cache.Get(key); ok {
			return pcm, nil
		}
	}

	start := time.Now()
	c, err := e.synth.Synthesize(ctx, text, p)
	if err != nil {
		return nil, err
	}
	pcm, err := audio.Convert(c.PCM, c.Format, format)
	if err != nil {
		return nil, err
	}
	log.Debug("synthesized", "engine", e.synth.Name(), "runes", len([]rune(text)), "took", time.Since(start))

	if e.cache != nil {
		if err := e.cache.Put(key, pcm); err != nil {
			log.Debug("cache put failed", "err", err)
		}
	}
	return pcm, nil
}

// play starts a clip and reports its words as the playback position passes
// them.
func (e *SynthEngine) play(s *synthSession, c clip) error {
	ticker := time.NewTicker(e.poll)
	defer ticker.Stop()

	// Hold the next clip while paused between sentences
	for s.isPaused() {
		select {
		case <-s.ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	if s.ctx.Err() != nil {
		return nil
	}

	pb, err := e.out.Play(c.pcm, s.u.Params.Volume)
	if err != nil {
		return err
	}
	s.setPlayback(pb)
	defer func() {
		s.setPlayback(nil)
		pb.Close()
	}()

	words := sentence.Words(c.span.Text)
	runes := c.span.Len()
	next := 0
	emit := func(reached int) {
		for next < len(words) && words[next].Start <= reached {
			if s.ctx.Err() != nil {
				return
			}
			w := words[next]
			s.l.OnProgress(s.u.Session, c.span.Start+w.Start, w.Len(), tts.UnitWord)
			next++
		}
	}

	for {
		if pb.Done() {
			emit(runes)
			return nil
		}
		emit(reachedRune(pb.Position(), pb.Duration(), runes))

		select {
		case <-s.ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// reachedRune maps a playback position to a rune of the sentence.
func reachedRune(pos, dur time.Duration, runes int) int {
	if dur <= 0 {
		return runes
	}
	return int(float64(runes) * float64(pos) / float64(dur))
}

// chunks splits text into sentences, then splits any sentence longer than the
// synthesizer accepts at word boundaries.
func (e *SynthEngine) chunks(text string) []sentence.Span {
	spans := e.parser.Sentences(text)
	limit := e.synth.Capabilities().MaxTextLength
	if limit <= 0 {
		return spans
	}

	var out []sentence.Span
	for _, s := range spans {
		if s.Len() <= limit {
			out = append(out, s)
			continue
		}
		runes := []rune(s.Text)
		start := -1
		end := 0
		for _, w := range sentence.Words(s.Text) {
			if start >= 0 && w.End-start > limit {
				out = append(out, sentence.Span{Start: s.Start + start, End: s.Start + end, Text: string(runes[start:end])})
				start = -1
			}
			if start < 0 {
				start = w.Start
			}
			end = w.End
		}
		if start >= 0 {
			out = append(out, sentence.Span{Start: s.Start + start, End: s.Start + end, Text: string(runes[start:end])})
		}
	}
	return out
}
