// Package openai synthesizes speech with the OpenAI speech API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/audio"
	"github.com/dgnsrekt/readaloud/tts/engines"
)

// Name identifies OpenAI in logs and cache keys.
const Name = "openai"

// PCM responses are 24kHz 16-bit mono.
var pcmFormat = audio.Format{SampleRate: 24000, Channels: 1}

const (
	maxTextLength = 4096
	minSpeed      = 0.25
	maxSpeed      = 4.0
)

var voices = []tts.Voice{
	{ID: "alloy", Name: "Alloy", Language: "en", Gender: "neutral"},
	{ID: "echo", Name: "Echo", Language: "en", Gender: "male"},
	{ID: "fable", Name: "Fable", Language: "en", Gender: "neutral"},
	{ID: "onyx", Name: "Onyx", Language: "en", Gender: "male"},
	{ID: "nova", Name: "Nova", Language: "en", Gender: "female"},
	{ID: "shimmer", Name: "Shimmer", Language: "en", Gender: "female"},
}

// Config holds configuration for OpenAI speech.
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint.
	BaseURL string
	// Model defaults to tts-1-hd.
	Model string
	Voice string
}

// OpenAI calls the speech endpoint once per sentence.
type OpenAI struct {
	client *openai.Client
	config Config
}

// New creates an OpenAI synthesizer.
func New(config Config) *OpenAI {
	if config.Model == "" {
		config.Model = string(openai.TTSModel1HD)
	}
	if config.Voice == "" {
		config.Voice = "alloy"
	}
	cc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cc.BaseURL = config.BaseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cc), config: config}
}

// Name implements engines.Synthesizer.
func (o *OpenAI) Name() string { return Name }

// Available implements engines.Synthesizer.
func (o *OpenAI) Available() error {
	if o.config.APIKey == "" {
		return errors.New("OPENAI_API_KEY is not set")
	}
	return nil
}

// Voices implements engines.Synthesizer.
func (o *OpenAI) Voices() []tts.Voice {
	return append([]tts.Voice(nil), voices...)
}

// Capabilities implements engines.Synthesizer.
func (o *OpenAI) Capabilities() engines.Capabilities {
	return engines.Capabilities{MaxTextLength: maxTextLength, RequiresNetwork: true, Rate: true}
}

// Synthesize implements engines.Synthesizer.
func (o *OpenAI) Synthesize(ctx context.Context, text string, p tts.Params) (engines.Clip, error) {
	if strings.TrimSpace(text) == "" {
		return engines.Clip{}, tts.ErrEmptyInput
	}
	voice := p.Voice
	if voice == "" {
		voice = o.config.Voice
	}
	if !knownVoice(voice) {
		return engines.Clip{}, fmt.Errorf("%w: %s", tts.ErrVoiceNotFound, voice)
	}

	res, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.config.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: "pcm",
		Speed:          speed(p.Rate),
	})
	if err != nil {
		return engines.Clip{}, fmt.Errorf("openai speech: %w", err)
	}
	defer res.Close()

	pcm, err := io.ReadAll(res)
	if err != nil {
		return engines.Clip{}, fmt.Errorf("read speech response: %w", err)
	}
	pcm = pcm[:len(pcm)-len(pcm)%pcmFormat.BytesPerFrame()]
	if len(pcm) == 0 {
		return engines.Clip{}, errors.New("openai speech: empty response")
	}
	return engines.Clip{PCM: pcm, Format: pcmFormat}, nil
}

func speed(rate float64) float64 {
	if rate <= 0 {
		return 1
	}
	return min(max(rate, minSpeed), maxSpeed)
}

func knownVoice(id string) bool {
	for _, v := range voices {
		if v.ID == id {
			return true
		}
	}
	return false
}
