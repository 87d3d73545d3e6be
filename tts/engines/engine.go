// Package engines turns text-to-audio synthesizers into speech engines that
// report word progress while their audio plays.
package engines

import (
	"context"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/audio"
)

// Clip is synthesized PCM and its layout.
type Clip struct {
	PCM    []byte
	Format audio.Format
}

// Capabilities describes what a synthesizer can do.
type Capabilities struct {
	MaxTextLength   int  // Maximum runes per request, 0 for no limit
	RequiresNetwork bool // Needs internet connection
	Rate            bool // Honours Params.Rate
	Pitch           bool // Honours Params.Pitch
}

// Synthesizer renders text to PCM.
type Synthesizer interface {
	// Name identifies the synthesizer in logs and cache keys.
	Name() string
	// Available reports why the synthesizer cannot run, or nil.
	Available() error
	Voices() []tts.Voice
	Capabilities() Capabilities
	Synthesize(ctx context.Context, text string, p tts.Params) (Clip, error)
}
