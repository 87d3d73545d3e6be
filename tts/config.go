package tts

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgnsrekt/readaloud/internal/clock"
	"github.com/dgnsrekt/readaloud/tts/debounce"
	"github.com/dgnsrekt/readaloud/tts/document"
)

// Engines lists the engine names accepted in configuration.
var Engines = []string{"mock", "piper", "gtts", "openai"}

// Config contains all read-aloud configuration options.
type Config struct {
	// Engine selection
	Engine   string `yaml:"engine" env:"READALOUD_ENGINE" envDefault:"piper"`
	Fallback string `yaml:"fallback" env:"READALOUD_FALLBACK" envDefault:"gtts"`

	// Voice parameters
	Voice  string  `yaml:"voice" env:"READALOUD_VOICE"`
	Rate   float64 `yaml:"rate" env:"READALOUD_RATE" envDefault:"1.0"`
	Pitch  float64 `yaml:"pitch" env:"READALOUD_PITCH" envDefault:"1.0"`
	Volume float64 `yaml:"volume" env:"READALOUD_VOLUME" envDefault:"1.0"`

	// Playback settings
	DebounceWindow    time.Duration `yaml:"debounce_window" env:"READALOUD_DEBOUNCE_WINDOW" envDefault:"1.5s"`
	StatsInterval     time.Duration `yaml:"stats_interval" env:"READALOUD_STATS_INTERVAL" envDefault:"1s"`
	MaxDocumentLength int           `yaml:"max_document_length" env:"READALOUD_MAX_DOCUMENT_LENGTH" envDefault:"10000"`

	// Audio settings
	SampleRate int `yaml:"sample_rate" env:"READALOUD_SAMPLE_RATE" envDefault:"22050"`
	Lookahead  int `yaml:"lookahead" env:"READALOUD_LOOKAHEAD" envDefault:"2"`

	Cache CacheConfig `yaml:"cache"`

	// Engine-specific configurations
	Piper  PiperConfig  `yaml:"piper"`
	GTTS   GTTSConfig   `yaml:"gtts"`
	OpenAI OpenAIConfig `yaml:"openai"`
	Mock   MockConfig   `yaml:"mock"`
}

// CacheConfig controls the synthesized audio cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled" env:"READALOUD_CACHE_ENABLED" envDefault:"true"`
	Dir      string `yaml:"dir" env:"READALOUD_CACHE_DIR"`
	MemoryMB int    `yaml:"memory_mb" env:"READALOUD_CACHE_MEMORY_MB" envDefault:"32"`
	DiskMB   int    `yaml:"disk_mb" env:"READALOUD_CACHE_DISK_MB" envDefault:"256"`
	Level    int    `yaml:"level" env:"READALOUD_CACHE_LEVEL" envDefault:"3"`
}

// PiperConfig contains Piper engine settings.
type PiperConfig struct {
	Binary   string        `yaml:"binary" env:"READALOUD_PIPER_BINARY" envDefault:"piper"`
	Model    string        `yaml:"model" env:"READALOUD_PIPER_MODEL"`
	ModelDir string        `yaml:"model_dir" env:"READALOUD_PIPER_MODEL_DIR"`
	Speaker  int           `yaml:"speaker" env:"READALOUD_PIPER_SPEAKER" envDefault:"0"`
	Timeout  time.Duration `yaml:"timeout" env:"READALOUD_PIPER_TIMEOUT" envDefault:"10s"`
}

// GTTSConfig contains gTTS engine settings.
type GTTSConfig struct {
	Binary            string        `yaml:"binary" env:"READALOUD_GTTS_BINARY" envDefault:"gtts-cli"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"READALOUD_GTTS_REQUESTS_PER_MINUTE" envDefault:"50"`
	Timeout           time.Duration `yaml:"timeout" env:"READALOUD_GTTS_TIMEOUT" envDefault:"30s"`
}

// OpenAIConfig contains OpenAI speech settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL string `yaml:"base_url" env:"READALOUD_OPENAI_BASE_URL"`
	Model   string `yaml:"model" env:"READALOUD_OPENAI_MODEL" envDefault:"tts-1-hd"`
}

// MockConfig contains mock engine settings.
type MockConfig struct {
	WordsPerMinute int `yaml:"words_per_minute" env:"READALOUD_MOCK_WORDS_PER_MINUTE" envDefault:"180"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:   "piper",
		Fallback: "gtts",

		Rate:   1.0,
		Pitch:  1.0,
		Volume: 1.0,

		DebounceWindow:    debounce.DefaultWindow,
		StatsInterval:     time.Second,
		MaxDocumentLength: document.DefaultMaxLength,

		SampleRate: 22050,
		Lookahead:  2,

		Cache: CacheConfig{
			Enabled:  true,
			MemoryMB: 32,
			DiskMB:   256,
			Level:    3,
		},
		Piper: PiperConfig{
			Binary:  "piper",
			Timeout: 10 * time.Second,
		},
		GTTS: GTTSConfig{
			Binary:            "gtts-cli",
			RequestsPerMinute: 50,
			Timeout:           30 * time.Second,
		},
		OpenAI: OpenAIConfig{
			Model: "tts-1-hd",
		},
		Mock: MockConfig{
			WordsPerMinute: 180,
		},
	}
}

// Validate checks if the configuration is valid. Engine names are
// normalised to lower case.
func (c *Config) Validate() error {
	c.Engine = strings.ToLower(c.Engine)
	if !slices.Contains(Engines, c.Engine) {
		return fmt.Errorf("invalid engine '%s': must be one of %v", c.Engine, Engines)
	}
	c.Fallback = strings.ToLower(c.Fallback)
	if c.Fallback != "" {
		if !slices.Contains(Engines, c.Fallback) || c.Fallback == "mock" {
			return fmt.Errorf("invalid fallback engine '%s'", c.Fallback)
		}
	}

	if err := c.Params().Validate(); err != nil {
		return err
	}

	if c.DebounceWindow < 100*time.Millisecond || c.DebounceWindow > 10*time.Second {
		return fmt.Errorf("debounce_window must be between 100ms and 10s, got %v", c.DebounceWindow)
	}
	if c.StatsInterval < 100*time.Millisecond || c.StatsInterval > time.Minute {
		return fmt.Errorf("stats_interval must be between 100ms and 1m, got %v", c.StatsInterval)
	}
	if c.MaxDocumentLength < 0 {
		return fmt.Errorf("max_document_length cannot be negative, got %d", c.MaxDocumentLength)
	}

	validSampleRates := []int{8000, 16000, 22050, 24000, 44100, 48000}
	if !slices.Contains(validSampleRates, c.SampleRate) {
		return fmt.Errorf("invalid sample rate %d: must be one of %v", c.SampleRate, validSampleRates)
	}
	if c.Lookahead < 1 || c.Lookahead > 10 {
		return fmt.Errorf("lookahead must be between 1 and 10, got %d", c.Lookahead)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	for _, name := range []string{c.Engine, c.Fallback} {
		var err error
		switch name {
		case "piper":
			err = c.Piper.Validate()
		case "gtts":
			err = c.GTTS.Validate()
		case "mock":
			err = c.Mock.Validate()
		}
		if err != nil {
			return fmt.Errorf("%s config: %w", name, err)
		}
	}
	return nil
}

// Validate checks the cache configuration.
func (c *CacheConfig) Validate() error {
	if c.MemoryMB < 0 || c.DiskMB < 0 {
		return fmt.Errorf("cache sizes cannot be negative")
	}
	if c.Level < 1 || c.Level > 4 {
		return fmt.Errorf("level must be between 1 and 4, got %d", c.Level)
	}
	return nil
}

// Validate checks the Piper configuration.
func (c *PiperConfig) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("piper binary path cannot be empty")
	}
	if c.Speaker < 0 {
		return fmt.Errorf("speaker cannot be negative, got %d", c.Speaker)
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second, got %v", c.Timeout)
	}
	return nil
}

// Validate checks the gTTS configuration.
func (c *GTTSConfig) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("gtts binary path cannot be empty")
	}
	if c.RequestsPerMinute < 1 || c.RequestsPerMinute > 600 {
		return fmt.Errorf("requests_per_minute must be between 1 and 600, got %d", c.RequestsPerMinute)
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second, got %v", c.Timeout)
	}
	return nil
}

// Validate checks the mock configuration.
func (c *MockConfig) Validate() error {
	if c.WordsPerMinute < 50 || c.WordsPerMinute > 500 {
		return fmt.Errorf("words_per_minute must be between 50 and 500, got %d", c.WordsPerMinute)
	}
	return nil
}

// Params returns the configured voice parameters.
func (c *Config) Params() Params {
	return Params{Voice: c.Voice, Rate: c.Rate, Pitch: c.Pitch, Volume: c.Volume}
}

// ToControllerConfig converts the configuration to controller settings.
func (c *Config) ToControllerConfig(clk clock.Clock) ControllerConfig {
	return ControllerConfig{
		DebounceWindow: c.DebounceWindow,
		StatsInterval:  c.StatsInterval,
		Params:         c.Params(),
		Clock:          clk,
	}
}
