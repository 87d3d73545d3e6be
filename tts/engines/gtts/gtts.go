// Package gtts synthesizes speech with Google Translate through gtts-cli.
package gtts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/audio"
	"github.com/dgnsrekt/readaloud/tts/engines"
)

// Name identifies gTTS in logs and cache keys.
const Name = "gtts"

// Google rejects long requests.
const maxTextLength = 5000

// slowBelow is the rate under which gtts-cli's --slow flag is used.
const slowBelow = 0.75

// accent is a Google Translate language served from a regional domain.
type accent struct {
	lang string
	tld  string
	name string
}

// accents maps voice ids to gtts-cli arguments.
var accents = map[string]accent{
	"en-US": {"en", "com", "English (US)"},
	"en-GB": {"en", "co.uk", "English (UK)"},
	"en-AU": {"en", "com.au", "English (Australia)"},
	"en-IN": {"en", "co.in", "English (India)"},
	"fr-FR": {"fr", "fr", "French"},
	"fr-CA": {"fr", "ca", "French (Canada)"},
	"de-DE": {"de", "de", "German"},
	"es-ES": {"es", "es", "Spanish (Spain)"},
	"es-MX": {"es", "com.mx", "Spanish (Mexico)"},
	"pt-BR": {"pt", "com.br", "Portuguese (Brazil)"},
	"it-IT": {"it", "it", "Italian"},
	"ja-JP": {"ja", "co.jp", "Japanese"},
}

// Config holds configuration for gTTS.
type Config struct {
	Binary string
	// Voice is the default accent, e.g. "en-GB".
	Voice string
	// RequestsPerMinute limits calls to avoid being blocked.
	RequestsPerMinute int
	Timeout           time.Duration
}

// GTTS shells out to gtts-cli and decodes its MP3 output.
type GTTS struct {
	config  Config
	limiter *rate.Limiter
}

// New creates a gTTS synthesizer.
func New(config Config) *GTTS {
	if config.Binary == "" {
		config.Binary = "gtts-cli"
	}
	if config.Voice == "" {
		config.Voice = "en-US"
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 50
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &GTTS{
		config:  config,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
	}
}

// Name implements engines.Synthesizer.
func (g *GTTS) Name() string { return Name }

// Available implements engines.Synthesizer.
func (g *GTTS) Available() error {
	if _, err := exec.LookPath(g.config.Binary); err != nil {
		return fmt.Errorf("gtts-cli not found in PATH: %w", err)
	}
	return nil
}

// Voices implements engines.Synthesizer.
func (g *GTTS) Voices() []tts.Voice {
	voices := make([]tts.Voice, 0, len(accents))
	for id, a := range accents {
		voices = append(voices, tts.Voice{ID: id, Name: a.name, Language: id})
	}
	return voices
}

// Capabilities implements engines.Synthesizer.
func (g *GTTS) Capabilities() engines.Capabilities {
	return engines.Capabilities{MaxTextLength: maxTextLength, RequiresNetwork: true}
}

// Synthesize implements engines.Synthesizer. gTTS only knows normal and slow
// speech, and ignores pitch.
func (g *GTTS) Synthesize(ctx context.Context, text string, p tts.Params) (engines.Clip, error) {
	if strings.TrimSpace(text) == "" {
		return engines.Clip{}, tts.ErrEmptyInput
	}
	args, err := g.args(p)
	if err != nil {
		return engines.Clip{}, err
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return engines.Clip{}, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	data, err := engines.RunCommand(ctx, g.config.Timeout, strings.NewReader(text), g.config.Binary, args...)
	if err != nil {
		return engines.Clip{}, err
	}
	return decodeMP3(data)
}

func (g *GTTS) args(p tts.Params) ([]string, error) {
	voice := p.Voice
	if voice == "" {
		voice = g.config.Voice
	}
	a, ok := accents[voice]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tts.ErrVoiceNotFound, voice)
	}
	args := []string{"--lang", a.lang, "--tld", a.tld}
	if p.Rate > 0 && p.Rate < slowBelow {
		args = append(args, "--slow")
	}
	// Text comes from stdin
	return append(args, "--output", "-", "-"), nil
}

// decodeMP3 decodes to 16-bit stereo PCM.
func decodeMP3(data []byte) (engines.Clip, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return engines.Clip{}, fmt.Errorf("decode mp3: %w", err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return engines.Clip{}, fmt.Errorf("decode mp3: %w", err)
	}
	format := audio.Format{SampleRate: dec.SampleRate(), Channels: 2}
	pcm = pcm[:len(pcm)-len(pcm)%format.BytesPerFrame()]
	if len(pcm) == 0 {
		return engines.Clip{}, errors.New("decode mp3: no audio")
	}
	return engines.Clip{PCM: pcm, Format: format}, nil
}
