package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for voice search.
type Config struct {
	Deepgram   DeepgramConfig
	Audio      AudioConfig
	Rules      RulesConfig
	Vocabulary VocabularyConfig
	Session    SessionConfig
	Search     SearchConfig
	Reporting  ReportingConfig
}

type DeepgramConfig struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type RulesConfig struct {
	Path           string
	IterationLimit int
}

type VocabularyConfig struct {
	Path string
}

type SessionConfig struct {
	ChunkSize    int
	CloseTimeout time.Duration
}

type SearchConfig struct {
	BaseURL string
}

type ReportingConfig struct {
	SentryDSN   string
	Environment string
}

// Load resolves configuration from environment variables and sensible defaults.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}
	configDir := filepath.Join(home, ".config", "vozbusca")

	cfg := Config{
		Deepgram: DeepgramConfig{
			APIKey:      strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL:  envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:       envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			Language:    envOrDefault("DEEPGRAM_LANGUAGE", "es-419"),
			SmartFormat: envOrDefaultBool("DEEPGRAM_SMART_FORMAT", true),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("VOZBUSCA_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("VOZBUSCA_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("VOZBUSCA_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("VOZBUSCA_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("VOZBUSCA_CHANNELS", 1),
		},
		Rules: RulesConfig{
			Path:           envOrDefault("VOZBUSCA_RULES_FILE", filepath.Join(configDir, "correcciones.rules")),
			IterationLimit: envOrDefaultInt("VOZBUSCA_RULE_ITERATION_LIMIT", 30),
		},
		Vocabulary: VocabularyConfig{
			Path: envOrDefault("VOZBUSCA_VOCABULARY_FILE", filepath.Join(configDir, "vocabulario.yaml")),
		},
		Session: SessionConfig{
			ChunkSize:    envOrDefaultInt("VOZBUSCA_AUDIO_CHUNK_SIZE", 4096),
			CloseTimeout: time.Duration(envOrDefaultInt("VOZBUSCA_CLOSE_TIMEOUT_MS", 3000)) * time.Millisecond,
		},
		Search: SearchConfig{
			BaseURL: envOrDefault("VOZBUSCA_SEARCH_URL", "http://localhost:3000/buscar"),
		},
		Reporting: ReportingConfig{
			SentryDSN:   strings.TrimSpace(os.Getenv("SENTRY_DSN")),
			Environment: envOrDefault("VOZBUSCA_ENVIRONMENT", "development"),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Rules.IterationLimit <= 0 {
		cfg.Rules.IterationLimit = 30
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = 4096
	}
	if cfg.Session.CloseTimeout <= 0 {
		cfg.Session.CloseTimeout = 3 * time.Second
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on", "si", "sí":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
