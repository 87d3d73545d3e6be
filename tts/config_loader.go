package tts

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads the configuration from Viper. Keys live under
// "tts." and fall back to DefaultConfig.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("tts.engine") {
		cfg.Engine = viper.GetString("tts.engine")
	}
	if viper.IsSet("tts.fallback") {
		cfg.Fallback = viper.GetString("tts.fallback")
	}

	// Voice parameters
	if viper.IsSet("tts.voice") {
		cfg.Voice = viper.GetString("tts.voice")
	}
	if viper.IsSet("tts.rate") {
		cfg.Rate = viper.GetFloat64("tts.rate")
	}
	if viper.IsSet("tts.pitch") {
		cfg.Pitch = viper.GetFloat64("tts.pitch")
	}
	if viper.IsSet("tts.volume") {
		cfg.Volume = viper.GetFloat64("tts.volume")
	}

	// Playback settings
	if viper.IsSet("tts.debounce_window") {
		cfg.DebounceWindow = viper.GetDuration("tts.debounce_window")
	}
	if viper.IsSet("tts.stats_interval") {
		cfg.StatsInterval = viper.GetDuration("tts.stats_interval")
	}
	if viper.IsSet("tts.max_document_length") {
		cfg.MaxDocumentLength = viper.GetInt("tts.max_document_length")
	}

	// Audio settings
	if viper.IsSet("tts.sample_rate") {
		cfg.SampleRate = viper.GetInt("tts.sample_rate")
	}
	if viper.IsSet("tts.lookahead") {
		cfg.Lookahead = viper.GetInt("tts.lookahead")
	}

	cfg.Cache = loadCacheConfig(cfg.Cache)
	cfg.Piper = loadPiperConfig(cfg.Piper)
	cfg.GTTS = loadGTTSConfig(cfg.GTTS)
	cfg.OpenAI = loadOpenAIConfig(cfg.OpenAI)
	if viper.IsSet("tts.mock.words_per_minute") {
		cfg.Mock.WordsPerMinute = viper.GetInt("tts.mock.words_per_minute")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadCacheConfig(cfg CacheConfig) CacheConfig {
	if viper.IsSet("tts.cache.enabled") {
		cfg.Enabled = viper.GetBool("tts.cache.enabled")
	}
	if viper.IsSet("tts.cache.dir") {
		cfg.Dir = viper.GetString("tts.cache.dir")
	}
	if viper.IsSet("tts.cache.memory_mb") {
		cfg.MemoryMB = viper.GetInt("tts.cache.memory_mb")
	}
	if viper.IsSet("tts.cache.disk_mb") {
		cfg.DiskMB = viper.GetInt("tts.cache.disk_mb")
	}
	if viper.IsSet("tts.cache.level") {
		cfg.Level = viper.GetInt("tts.cache.level")
	}
	return cfg
}

func loadPiperConfig(cfg PiperConfig) PiperConfig {
	if viper.IsSet("tts.piper.binary") {
		cfg.Binary = viper.GetString("tts.piper.binary")
	}
	if viper.IsSet("tts.piper.model") {
		cfg.Model = viper.GetString("tts.piper.model")
	}
	if viper.IsSet("tts.piper.model_dir") {
		cfg.ModelDir = viper.GetString("tts.piper.model_dir")
	}
	if viper.IsSet("tts.piper.speaker") {
		cfg.Speaker = viper.GetInt("tts.piper.speaker")
	}
	if viper.IsSet("tts.piper.timeout") {
		cfg.Timeout = viper.GetDuration("tts.piper.timeout")
	}
	return cfg
}

func loadGTTSConfig(cfg GTTSConfig) GTTSConfig {
	if viper.IsSet("tts.gtts.binary") {
		cfg.Binary = viper.GetString("tts.gtts.binary")
	}
	if viper.IsSet("tts.gtts.requests_per_minute") {
		cfg.RequestsPerMinute = viper.GetInt("tts.gtts.requests_per_minute")
	}
	if viper.IsSet("tts.gtts.timeout") {
		cfg.Timeout = viper.GetDuration("tts.gtts.timeout")
	}
	return cfg
}

// loadOpenAIConfig also reads OPENAI_API_KEY, which is commonly set in .env.
func loadOpenAIConfig(cfg OpenAIConfig) OpenAIConfig {
	if viper.IsSet("tts.openai.api_key") {
		cfg.APIKey = viper.GetString("tts.openai.api_key")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = viper.GetString("openai_api_key")
	}
	if viper.IsSet("tts.openai.base_url") {
		cfg.BaseURL = viper.GetString("tts.openai.base_url")
	}
	if viper.IsSet("tts.openai.model") {
		cfg.Model = viper.GetString("tts.openai.model")
	}
	return cfg
}

// SetDefaults sets default values in Viper for the configuration.
func SetDefaults() {
	defaults := DefaultConfig()

	viper.SetDefault("tts.engine", defaults.Engine)
	viper.SetDefault("tts.fallback", defaults.Fallback)

	viper.SetDefault("tts.rate", defaults.Rate)
	viper.SetDefault("tts.pitch", defaults.Pitch)
	viper.SetDefault("tts.volume", defaults.Volume)

	viper.SetDefault("tts.debounce_window", defaults.DebounceWindow.String())
	viper.SetDefault("tts.stats_interval", defaults.StatsInterval.String())
	viper.SetDefault("tts.max_document_length", defaults.MaxDocumentLength)

	viper.SetDefault("tts.sample_rate", defaults.SampleRate)
	viper.SetDefault("tts.lookahead", defaults.Lookahead)

	viper.SetDefault("tts.cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("tts.cache.memory_mb", defaults.Cache.MemoryMB)
	viper.SetDefault("tts.cache.disk_mb", defaults.Cache.DiskMB)
	viper.SetDefault("tts.cache.level", defaults.Cache.Level)

	viper.SetDefault("tts.piper.binary", defaults.Piper.Binary)
	viper.SetDefault("tts.piper.timeout", defaults.Piper.Timeout.String())

	viper.SetDefault("tts.gtts.binary", defaults.GTTS.Binary)
	viper.SetDefault("tts.gtts.requests_per_minute", defaults.GTTS.RequestsPerMinute)
	viper.SetDefault("tts.gtts.timeout", defaults.GTTS.Timeout.String())

	viper.SetDefault("tts.openai.model", defaults.OpenAI.Model)

	viper.SetDefault("tts.mock.words_per_minute", defaults.Mock.WordsPerMinute)
}
