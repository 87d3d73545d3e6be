package engines

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/readaloud/tts"
)

// Fallback wraps a primary synthesizer and switches to a secondary one when
// the primary is unavailable or fails maxFailures times in a row.
type Fallback struct {
	primary       Synthesizer
	fallback      Synthesizer
	maxFailures   int
	failures      int
	usingFallback bool
	mu            sync.Mutex
}

// NewFallback creates a synthesizer with automatic fallback.
func NewFallback(primary, fallback Synthesizer, maxFailures int) *Fallback {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &Fallback{
		primary:     primary,
		fallback:    fallback,
		maxFailures: maxFailures,
	}
}

// Name implements Synthesizer.
func (f *Fallback) Name() string {
	return fmt.Sprintf("%s|%s", f.primary.Name(), f.fallback.Name())
}

func (f *Fallback) active() Synthesizer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usingFallback {
		return f.fallback
	}
	return f.primary
}

// Available implements Synthesizer. An unavailable primary switches to the
// fallback.
func (f *Fallback) Available() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.usingFallback {
		return f.fallback.Available()
	}
	perr := f.primary.Available()
	if perr == nil {
		return nil
	}
	ferr := f.fallback.Available()
	if ferr != nil {
		return errors.Join(perr, ferr)
	}

	log.Warn("primary synthesizer unavailable, using fallback",
		"primary", f.primary.Name(), "fallback", f.fallback.Name(), "err", perr)
	f.usingFallback = true
	return nil
}

// Voices implements Synthesizer.
func (f *Fallback) Voices() []tts.Voice {
	return f.active().Voices()
}

// Capabilities implements Synthesizer.
func (f *Fallback) Capabilities() Capabilities {
	return f.active().Capabilities()
}

// Synthesize implements Synthesizer.
func (f *Fallback) Synthesize(ctx context.Context, text string, p tts.Params) (Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.usingFallback {
		return f.fallback.Synthesize(ctx, text, p)
	}

	clip, err := f.primary.Synthesize(ctx, text, p)
	if err == nil {
		if f.failures > 0 {
			log.Info("primary synthesizer recovered", "failures", f.failures)
			f.failures = 0
		}
		return clip, nil
	}
	if ctx.Err() != nil {
		return Clip{}, err
	}

	f.failures++
	log.Warn("primary synthesizer failed", "attempt", f.failures, "max", f.maxFailures, "err", err)
	if f.failures < f.maxFailures {
		return Clip{}, err
	}

	log.Warn("switching to fallback synthesizer", "fallback", f.fallback.Name())
	f.usingFallback = true
	clip, ferr := f.fallback.Synthesize(ctx, text, p)
	if ferr != nil {
		return Clip{}, fmt.Errorf("both synthesizers failed: %w", errors.Join(err, ferr))
	}
	return clip, nil
}

// Reset goes back to the primary synthesizer.
func (f *Fallback) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = 0
	f.usingFallback = false
}

// Status describes which synthesizer is active.
func (f *Fallback) Status() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usingFallback {
		return fmt.Sprintf("using fallback %s (primary failed %d times)", f.fallback.Name(), f.failures)
	}
	return fmt.Sprintf("using primary %s (failures: %d/%d)", f.primary.Name(), f.failures, f.maxFailures)
}
