package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "SMARTREADER_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	hubURLEnv         = "HUB_API_URL"
	hubUserIDEnv      = "HUB_USER_ID"
	speechLanguageEnv = "SPEECH_LANGUAGE"
	speechRateEnv     = "SPEECH_RATE"
	speechVoiceEnv    = "SPEECH_VOICE"
	ttsEndpointEnv    = "TTS_ENDPOINT"
	ttsAPIKeyEnv      = "TTS_API_KEY"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Hub     HubConfig     `yaml:"hub"`
	Speech  SpeechConfig  `yaml:"speech"`
	TTS     TTSConfig     `yaml:"tts"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// HubConfig describes the remote article service and the identity used when
// posting comments.
type HubConfig struct {
	BaseURL        string `yaml:"baseUrl"`
	UserID         int64  `yaml:"userId"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// SpeechConfig carries the utterance defaults handed to the speech device.
type SpeechConfig struct {
	Language string  `yaml:"language"`
	Rate     float64 `yaml:"rate"`
	Voice    string  `yaml:"voice"`
}

// TTSConfig defines how to contact the speech-synthesis API and where the
// synthesized audio goes.
type TTSConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"apiKey"`
	OutputPath string `yaml:"outputPath"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(hubURLEnv); v != "" {
		c.Hub.BaseURL = v
	}

	if v := os.Getenv(hubUserIDEnv); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Hub.UserID = id
		} else {
			log.Printf("config: invalid %s=%q, keeping %d", hubUserIDEnv, v, c.Hub.UserID)
		}
	}

	if v := os.Getenv(speechLanguageEnv); v != "" {
		c.Speech.Language = v
	}

	if v := os.Getenv(speechRateEnv); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.Speech.Rate = rate
		} else {
			log.Printf("config: invalid %s=%q, keeping %.2f", speechRateEnv, v, c.Speech.Rate)
		}
	}

	if v := os.Getenv(speechVoiceEnv); v != "" {
		c.Speech.Voice = v
	}

	if v := os.Getenv(ttsEndpointEnv); v != "" {
		c.TTS.Endpoint = v
	}

	if v := os.Getenv(ttsAPIKeyEnv); v != "" {
		c.TTS.APIKey = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Hub.BaseURL != "" {
		base.Hub.BaseURL = override.Hub.BaseURL
	}
	if override.Hub.UserID != 0 {
		base.Hub.UserID = override.Hub.UserID
	}
	if override.Hub.TimeoutSeconds != 0 {
		base.Hub.TimeoutSeconds = override.Hub.TimeoutSeconds
	}

	if override.Speech.Language != "" {
		base.Speech.Language = override.Speech.Language
	}
	if override.Speech.Rate != 0 {
		base.Speech.Rate = override.Speech.Rate
	}
	if override.Speech.Voice != "" {
		base.Speech.Voice = override.Speech.Voice
	}

	if override.TTS.Endpoint != "" {
		base.TTS.Endpoint = override.TTS.Endpoint
	}
	if override.TTS.Model != "" {
		base.TTS.Model = override.TTS.Model
	}
	if override.TTS.APIKey != "" {
		base.TTS.APIKey = override.TTS.APIKey
	}
	if override.TTS.OutputPath != "" {
		base.TTS.OutputPath = override.TTS.OutputPath
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Hub: HubConfig{
			BaseURL:        "http://localhost:8080/api/v1",
			UserID:         1,
			TimeoutSeconds: 20,
		},
		Speech: SpeechConfig{
			Language: "ar-SA",
			Rate:     0.9,
		},
		TTS: TTSConfig{
			Endpoint: "https://api.openai.com/v1/audio/speech",
			Model:    "gpt-4o-mini-tts",
		},
	}
}
