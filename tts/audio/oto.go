package audio

import (
	"bytes"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	otoOnce   sync.Once
	otoCtx    *oto.Context
	otoFormat Format
	otoErr    error
)

// Oto plays PCM on the system audio device.
type Oto struct {
	ctx    *oto.Context
	format Format

	mu     sync.Mutex
	closed bool
}

// NewOto opens the audio device. The first call fixes the device format;
// later calls share it, so callers must convert to Format().
func NewOto(f Format) (*Oto, error) {
	otoOnce.Do(func() {
		options := &oto.NewContextOptions{
			SampleRate:   f.SampleRate,
			ChannelCount: f.Channels,
			Format:       oto.FormatSignedInt16LE,
		}
		// macOS benefits from larger buffers
		switch runtime.GOOS {
		case "darwin":
			options.BufferSize = 100 * time.Millisecond
		default:
			options.BufferSize = 50 * time.Millisecond
		}

		ctx, ready, err := oto.NewContext(options)
		if err != nil {
			otoErr = fmt.Errorf("failed to create audio context: %w", err)
			return
		}
		<-ready
		otoCtx, otoFormat = ctx, f
	})
	if otoErr != nil {
		return nil, otoErr
	}
	return &Oto{ctx: otoCtx, format: otoFormat}, nil
}

// Format implements Output.
func (o *Oto) Format() Format { return o.format }

// Play implements Output.
func (o *Oto) Play(data []byte, volume float64) (Playback, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, ErrClosed
	}
	if err := o.format.Validate(data); err != nil {
		return nil, err
	}

	r := &countingReader{r: bytes.NewReader(data)}
	p := o.ctx.NewPlayer(r)
	p.SetVolume(volume)
	p.Play()

	return &otoPlayback{
		player:   p,
		reader:   r,
		format:   o.format,
		duration: o.format.Duration(len(data)),
	}, nil
}

// Close implements Output. The device itself stays open for the process.
func (o *Oto) Close() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	return nil
}

// countingReader keeps the clip bytes alive during playback and counts how
// many the device has pulled.
type countingReader struct {
	r    *bytes.Reader
	read atomic.Int64
	eof  atomic.Bool
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read.Add(int64(n))
	if err != nil {
		c.eof.Store(true)
	}
	return n, err
}

type otoPlayback struct {
	player   *oto.Player
	reader   *countingReader
	format   Format
	duration time.Duration
	paused   atomic.Bool
	closed   atomic.Bool
}

func (p *otoPlayback) Pause() {
	if p.closed.Load() {
		return
	}
	p.paused.Store(true)
	p.player.Pause()
}

func (p *otoPlayback) Resume() {
	if p.closed.Load() {
		return
	}
	p.paused.Store(false)
	p.player.Play()
}

func (p *otoPlayback) SetVolume(v float64) {
	if !p.closed.Load() {
		p.player.SetVolume(v)
	}
}

// Position is the bytes pulled by the device minus what is still buffered.
func (p *otoPlayback) Position() time.Duration {
	if p.closed.Load() {
		return p.duration
	}
	heard := p.reader.read.Load() - int64(p.player.BufferedSize())
	return min(p.format.Duration(int(max(heard, 0))), p.duration)
}

func (p *otoPlayback) Duration() time.Duration {
	return p.duration
}

func (p *otoPlayback) Done() bool {
	if p.closed.Load() {
		return true
	}
	if p.paused.Load() {
		return false
	}
	return p.reader.eof.Load() && !p.player.IsPlaying()
}

func (p *otoPlayback) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.player.Pause()
	return p.player.Close()
}
