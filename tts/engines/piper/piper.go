// Package piper synthesizes speech offline with the Piper binary.
package piper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/audio"
	"github.com/dgnsrekt/readaloud/tts/engines"
)

// Name identifies Piper in logs and cache keys.
const Name = "piper"

const (
	defaultSampleRate = 22050
	maxTextLength     = 5000
)

// Config holds configuration for Piper.
type Config struct {
	// Binary is the piper executable. Empty searches common locations.
	Binary string
	// Model is the default .onnx voice model.
	Model string
	// ModelDir holds additional .onnx models offered as voices.
	ModelDir string
	// Speaker selects a speaker in multi-speaker models.
	Speaker int
	// Timeout bounds one synthesis.
	Timeout time.Duration
}

// DefaultConfig returns a configuration that searches for piper.
func DefaultConfig() Config {
	return Config{
		Binary:  findBinary(),
		Timeout: 10 * time.Second,
	}
}

// Piper runs a fresh piper process per sentence.
type Piper struct {
	config Config

	mu     sync.Mutex
	voices map[string]model
}

// model is a voice model and what its .onnx.json says about it.
type model struct {
	path       string
	language   string
	sampleRate int
}

// modelConfig is the part of a piper .onnx.json file we read.
type modelConfig struct {
	Audio struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
	Language struct {
		Code string `json:"code"`
	} `json:"language"`
}

// New creates a Piper synthesizer.
func New(config Config) *Piper {
	if config.Binary == "" {
		config.Binary = findBinary()
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Piper{config: config}
}

// Name implements engines.Synthesizer.
func (p *Piper) Name() string { return Name }

// Available implements engines.Synthesizer.
func (p *Piper) Available() error {
	if p.config.Binary == "" {
		return errors.New("piper binary not found")
	}
	if _, err := exec.LookPath(p.config.Binary); err != nil {
		return fmt.Errorf("piper not executable: %w", err)
	}
	if len(p.models()) == 0 {
		return errors.New("no piper voice model configured")
	}
	return nil
}

// Voices implements engines.Synthesizer. Each model is one voice.
func (p *Piper) Voices() []tts.Voice {
	models := p.models()
	ids := make([]string, 0, len(models))
	for id := range models {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	voices := make([]tts.Voice, 0, len(ids))
	for _, id := range ids {
		voices = append(voices, tts.Voice{
			ID:       id,
			Name:     displayName(id),
			Language: models[id].language,
		})
	}
	return voices
}

// Capabilities implements engines.Synthesizer.
func (p *Piper) Capabilities() engines.Capabilities {
	return engines.Capabilities{MaxTextLength: maxTextLength, Rate: true}
}

// Synthesize implements engines.Synthesizer. Rate maps to piper's length
// scale; pitch is not supported.
func (p *Piper) Synthesize(ctx context.Context, text string, params tts.Params) (engines.Clip, error) {
	if strings.TrimSpace(text) == "" {
		return engines.Clip{}, tts.ErrEmptyInput
	}
	m, err := p.model(params.Voice)
	if err != nil {
		return engines.Clip{}, err
	}

	rate := params.Rate
	if rate <= 0 {
		rate = 1
	}
	args := []string{
		"--model", m.path,
		"--output-raw",
		"--length_scale", strconv.FormatFloat(1/rate, 'f', 2, 64),
	}
	if cfg := m.path + ".json"; fileExists(cfg) {
		args = append(args, "--config", cfg)
	}
	if p.config.Speaker > 0 {
		args = append(args, "--speaker", strconv.Itoa(p.config.Speaker))
	}

	pcm, err := engines.RunCommand(ctx, p.config.Timeout, strings.NewReader(text+"\n"), p.config.Binary, args...)
	if err != nil {
		return engines.Clip{}, err
	}
	format := audio.Format{SampleRate: m.sampleRate, Channels: 1}
	// Drop a trailing odd byte from a truncated write
	pcm = pcm[:len(pcm)-len(pcm)%format.BytesPerFrame()]
	return engines.Clip{PCM: pcm, Format: format}, nil
}

func (p *Piper) model(voice string) (model, error) {
	models := p.models()
	if voice == "" {
		voice = modelID(p.config.Model)
	}
	m, ok := models[voice]
	if !ok {
		return model{}, fmt.Errorf("%w: %s", tts.ErrVoiceNotFound, voice)
	}
	return m, nil
}

// models scans the configured model and model directory once.
func (p *Piper) models() map[string]model {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.voices != nil {
		return p.voices
	}

	p.voices = make(map[string]model)
	var paths []string
	if p.config.Model != "" {
		paths = append(paths, p.config.Model)
	}
	if p.config.ModelDir != "" {
		found, err := filepath.Glob(filepath.Join(p.config.ModelDir, "*.onnx"))
		if err != nil {
			log.Warn("cannot list piper models", "dir", p.config.ModelDir, "err", err)
		}
		paths = append(paths, found...)
	}
	for _, path := range paths {
		if !fileExists(path) {
			log.Warn("piper model not found", "path", path)
			continue
		}
		p.voices[modelID(path)] = loadModel(path)
	}
	return p.voices
}

func loadModel(path string) model {
	m := model{path: path, language: "en-US", sampleRate: defaultSampleRate}
	data, err := os.ReadFile(path + ".json")
	if err != nil {
		return m
	}
	var cfg modelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Debug("bad piper model config", "path", path, "err", err)
		return m
	}
	if cfg.Audio.SampleRate > 0 {
		m.sampleRate = cfg.Audio.SampleRate
	}
	if cfg.Language.Code != "" {
		m.language = strings.ReplaceAll(cfg.Language.Code, "_", "-")
	}
	return m
}

// modelID turns "voices/en_US-lessac-medium.onnx" into "en_US-lessac-medium".
func modelID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// displayName turns "en_US-lessac-medium" into "lessac (medium)".
func displayName(id string) string {
	parts := strings.Split(id, "-")
	switch len(parts) {
	case 3:
		return fmt.Sprintf("%s (%s)", parts[1], parts[2])
	case 2:
		return parts[1]
	default:
		return id
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// findBinary tries to find piper in common locations.
func findBinary() string {
	locations := []string{"piper", "/usr/local/bin/piper", "/usr/bin/piper"}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations,
			filepath.Join(home, ".local", "bin", "piper"),
			filepath.Join(home, "bin", "piper"),
		)
	}
	for _, loc := range locations {
		if path, err := exec.LookPath(loc); err == nil {
			return path
		}
	}
	return ""
}
