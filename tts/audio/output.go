package audio

import (
	"errors"
	"sync"
	"time"

	"github.com/dgnsrekt/readaloud/internal/clock"
)

// ErrClosed is returned when playing through a closed output.
var ErrClosed = errors.New("audio output is closed")

// Output starts clips on an audio device.
type Output interface {
	// Format is the PCM layout Play expects.
	Format() Format
	// Play starts data at volume (0.0 to 1.0).
	Play(data []byte, volume float64) (Playback, error)
	Close() error
}

// Playback is one clip being played.
type Playback interface {
	Pause()
	Resume()
	SetVolume(volume float64)
	// Position is how much of the clip has been heard.
	Position() time.Duration
	// Duration is the length of the clip.
	Duration() time.Duration
	// Done reports whether the clip has finished.
	Done() bool
	Close() error
}

// Simulated is an Output that plays nothing and advances clips on a clock.
// It backs tests and headless runs without an audio device.
type Simulated struct {
	clock  clock.Clock
	format Format

	mu     sync.Mutex
	closed bool
	played int
}

// NewSimulated creates a silent output on c.
func NewSimulated(c clock.Clock, f Format) *Simulated {
	if c == nil {
		c = clock.New()
	}
	return &Simulated{clock: c, format: f}
}

// Format implements Output.
func (s *Simulated) Format() Format { return s.format }

// Play implements Output.
func (s *Simulated) Play(data []byte, volume float64) (Playback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	s.played++
	return &simulatedPlayback{
		clock:    s.clock,
		duration: s.format.Duration(len(data)),
		started:  s.clock.Now(),
		volume:   volume,
	}, nil
}

// Played returns how many clips were started.
func (s *Simulated) Played() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.played
}

// Close implements Output.
func (s *Simulated) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

type simulatedPlayback struct {
	clock    clock.Clock
	duration time.Duration

	mu      sync.Mutex
	started time.Time
	heard   time.Duration // Time heard before the last pause
	paused  bool
	closed  bool
	volume  float64
}

func (p *simulatedPlayback) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused || p.closed {
		return
	}
	p.heard += p.clock.Now().Sub(p.started)
	p.paused = true
}

func (p *simulatedPlayback) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused || p.closed {
		return
	}
	p.started = p.clock.Now()
	p.paused = false
}

func (p *simulatedPlayback) SetVolume(v float64) {
	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
}

func (p *simulatedPlayback) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos := p.heard
	if !p.paused && !p.closed {
		pos += p.clock.Now().Sub(p.started)
	}
	return min(pos, p.duration)
}

func (p *simulatedPlayback) Duration() time.Duration {
	return p.duration
}

func (p *simulatedPlayback) Done() bool {
	return p.Position() >= p.duration
}

func (p *simulatedPlayback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused && !p.closed {
		p.heard += p.clock.Now().Sub(p.started)
	}
	p.closed = true
	return nil
}
