// Package factory builds the configured speech engine.
package factory

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"

	"github.com/dgnsrekt/readaloud/internal/cache"
	"github.com/dgnsrekt/readaloud/internal/clock"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/audio"
	"github.com/dgnsrekt/readaloud/tts/engines"
	"github.com/dgnsrekt/readaloud/tts/engines/gtts"
	"github.com/dgnsrekt/readaloud/tts/engines/mock"
	"github.com/dgnsrekt/readaloud/tts/engines/openai"
	"github.com/dgnsrekt/readaloud/tts/engines/piper"
)

// maxFailures is how many consecutive primary failures switch to the fallback.
const maxFailures = 3

// Options overrides parts of the environment an engine is built in.
type Options struct {
	// Clock drives the mock engine. Defaults to the real clock.
	Clock clock.Clock
	// Output replaces the audio device, e.g. audio.Simulated when headless.
	Output audio.Output
}

// New builds the engine named by cfg.Engine. Audio-backed engines are wrapped
// in a SynthEngine with the configured fallback and cache.
func New(cfg tts.Config, opts Options) (tts.Engine, error) {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if cfg.Engine == "mock" {
		return mock.NewAuto(opts.Clock, cfg.Mock.WordsPerMinute), nil
	}

	synth, err := Synthesizer(cfg.Engine, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Fallback != "" && cfg.Fallback != cfg.Engine {
		secondary, err := Synthesizer(cfg.Fallback, cfg)
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		synth = engines.NewFallback(synth, secondary, maxFailures)
	}

	out := opts.Output
	if out == nil {
		oto, err := audio.NewOto(audio.Format{SampleRate: cfg.SampleRate, Channels: 1})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", tts.ErrEngineUnavailable, err)
		}
		out = oto
	}

	options := []engines.Option{engines.WithLookahead(cfg.Lookahead)}
	if cfg.Cache.Enabled {
		c, err := openCache(cfg.Cache)
		if err != nil {
			// Playback works without a cache.
			log.Warn("Audio cache disabled", "err", err)
		} else {
			options = append(options, engines.WithCache(c))
		}
	}

	log.Debug("Engine ready", "engine", synth.Name(), "format", out.Format())
	return engines.NewSynthEngine(synth, out, options...), nil
}

// Synthesizer builds one synthesizer by name.
func Synthesizer(name string, cfg tts.Config) (engines.Synthesizer, error) {
	switch name {
	case piper.Name:
		return piper.New(piper.Config{
			Binary:   expand(cfg.Piper.Binary),
			Model:    expand(cfg.Piper.Model),
			ModelDir: expand(cfg.Piper.ModelDir),
			Speaker:  cfg.Piper.Speaker,
			Timeout:  cfg.Piper.Timeout,
		}), nil
	case gtts.Name:
		return gtts.New(gtts.Config{
			Binary:            expand(cfg.GTTS.Binary),
			Voice:             cfg.Voice,
			RequestsPerMinute: cfg.GTTS.RequestsPerMinute,
			Timeout:           cfg.GTTS.Timeout,
		}), nil
	case openai.Name:
		return openai.New(openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Voice:   cfg.Voice,
		}), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}

// CacheDir returns the configured cache directory, or the user cache
// directory for readaloud.
func CacheDir(cfg tts.CacheConfig) (string, error) {
	if cfg.Dir != "" {
		return homedir.Expand(cfg.Dir)
	}
	dir, err := gap.NewScope(gap.User, "readaloud").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "audio"), nil
}

func openCache(cfg tts.CacheConfig) (*cache.Cache, error) {
	dir, err := CacheDir(cfg)
	if err != nil {
		return nil, err
	}
	return cache.New(cache.Config{
		MemoryCapacity:   int64(cfg.MemoryMB) << 20,
		DiskCapacity:     int64(cfg.DiskMB) << 20,
		Dir:              dir,
		CompressionLevel: cfg.Level,
	})
}

func expand(path string) string {
	if path == "" {
		return ""
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return p
}
