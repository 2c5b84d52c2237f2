// Package config provides the typed configuration tree for pdf2audio.
//
// Configuration is layered: compiled-in defaults, then an optional user TOML
// file (either an explicit --config path or ~/.pdf2audio/config.toml), then
// CLI flag overrides applied by the caller. Later layers replace earlier ones
// field by field. The resulting Config is constructed once at process start
// and passed by reference; nothing here is a mutable global.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// User configuration locations.
const (
	userConfigDirName  = ".pdf2audio"
	userConfigFileName = "config.toml"
)

// Default chunking and summarization parameters.
const (
	DefaultMaxChunkChars    = 4000
	DefaultSummaryRatio     = 0.45
	DefaultSummaryTolerance = 0.9
	DefaultCallTimeoutSecs  = 120
)

// ErrConfigNotFound is returned when an explicitly requested config file does
// not exist. Config errors are fatal before any provider is instantiated.
var ErrConfigNotFound = errors.New("config file not found")

// OpenAIVoiceConfig holds voice settings for the OpenAI TTS provider.
type OpenAIVoiceConfig struct {
	Model   string `toml:"model"`
	Voice   string `toml:"voice"`
	BaseURL string `toml:"base_url"`
}

// AWSVoiceConfig holds voice settings for the AWS Polly TTS provider.
type AWSVoiceConfig struct {
	VoiceID string `toml:"voice_id"`
	Engine  string `toml:"engine"`
	Region  string `toml:"region"`
}

// VoiceConfig groups per-provider voice settings.
type VoiceConfig struct {
	OpenAI OpenAIVoiceConfig `toml:"openai"`
	AWS    AWSVoiceConfig    `toml:"aws"`
}

// TTSConfig holds text-to-speech settings.
type TTSConfig struct {
	Provider         string            `toml:"provider"`
	DefaultLanguage  string            `toml:"default_language"`
	SpeakingRate     float64           `toml:"speaking_rate"`
	Slow             bool              `toml:"slow"`
	LanguageMappings map[string]string `toml:"language_mappings"`
	Voice            VoiceConfig       `toml:"voice"`
}

// LLMAPIConfig holds model settings for a single LLM provider.
type LLMAPIConfig struct {
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	BaseURL     string  `toml:"base_url"`
}

// LLMAPIs groups per-provider LLM settings.
type LLMAPIs struct {
	OpenAI LLMAPIConfig `toml:"openai"`
	Gemini LLMAPIConfig `toml:"gemini"`
}

// PrecleanConfig holds thresholds for boilerplate stripping.
type PrecleanConfig struct {
	Enabled       bool `toml:"enabled"`
	MinRepeats    int  `toml:"min_repeats"`
	MaxLineLength int  `toml:"max_line_length"`
}

// LLMConfig holds content-transformation settings.
type LLMConfig struct {
	Provider           string         `toml:"provider"`
	CleaningPrompt     string         `toml:"cleaning_prompt"`
	SSMLPrompt         string         `toml:"ssml_prompt"`
	SummaryPrompt      string         `toml:"summary_prompt"`
	SummaryMergePrompt string         `toml:"summary_merge_prompt"`
	ChunkStrategy      string         `toml:"chunk_strategy"`
	MaxChunkChars      int            `toml:"max_chunk_chars"`
	SummaryRatio       float64        `toml:"summary_ratio"`
	SummaryTolerance   float64        `toml:"summary_tolerance"`
	CallTimeoutSeconds int            `toml:"call_timeout_seconds"`
	Preclean           PrecleanConfig `toml:"preclean"`
	API                LLMAPIs        `toml:"api"`
}

// OutputConfig holds output and logging settings.
type OutputConfig struct {
	Verbose bool   `toml:"verbose"`
	LogsDir string `toml:"logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	TTS    TTSConfig    `toml:"tts"`
	LLM    LLMConfig    `toml:"llm"`
	Output OutputConfig `toml:"output"`
}

// Default returns the compiled-in configuration defaults.
func Default() Config {
	return Config{
		TTS: TTSConfig{
			Provider:        "gtts",
			DefaultLanguage: "en",
			SpeakingRate:    1.0,
			Slow:            false,
			LanguageMappings: map[string]string{
				"es_la": "es",
				"pt_br": "pt",
			},
			Voice: VoiceConfig{
				OpenAI: OpenAIVoiceConfig{
					Model:   "tts-1",
					Voice:   "alloy",
					BaseURL: "",
				},
				AWS: AWSVoiceConfig{
					VoiceID: "Joanna",
					Engine:  "neural",
					Region:  "us-east-1",
				},
			},
		},
		LLM: LLMConfig{
			Provider: "openai",
			CleaningPrompt: "Please clean this PDF text for " +
				"text-to-speech conversion. Remove artifacts, fix " +
				"broken lines, keep the original wording:",
			SSMLPrompt: "Add SSML tags to this text to improve " +
				"text-to-speech prosody. Return only the tagged text:",
			SummaryPrompt: "Summarize this text for an audiobook:",
			SummaryMergePrompt: "Merge the following chunk summaries " +
				"into one cohesive audiobook-style summary without " +
				"repetition:",
			ChunkStrategy:      "paragraph",
			MaxChunkChars:      DefaultMaxChunkChars,
			SummaryRatio:       DefaultSummaryRatio,
			SummaryTolerance:   DefaultSummaryTolerance,
			CallTimeoutSeconds: DefaultCallTimeoutSecs,
			Preclean: PrecleanConfig{
				Enabled:       true,
				MinRepeats:    3,
				MaxLineLength: 80,
			},
			API: LLMAPIs{
				OpenAI: LLMAPIConfig{
					Model:       "gpt-4o-mini",
					MaxTokens:   4000,
					Temperature: 0.1,
					BaseURL:     "",
				},
				Gemini: LLMAPIConfig{
					Model:       "gemini-1.5-flash",
					MaxTokens:   0,
					Temperature: 0,
					BaseURL:     "",
				},
			},
		},
		Output: OutputConfig{
			Verbose: false,
			LogsDir: os.TempDir(),
		},
	}
}

// Load builds the configuration by overlaying the user config file on the
// defaults. An empty path means the standard user location is tried and
// silently skipped when absent; an explicit path that does not exist is a
// fatal configuration error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = userConfigPath()
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		if os.IsNotExist(readErr) && !explicit {
			return &cfg, nil
		}

		return nil, fmt.Errorf("%w: %s: %w", ErrConfigNotFound, path, readErr)
	}

	unmarshalErr := toml.Unmarshal(data, &cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, unmarshalErr)
	}

	return &cfg, nil
}

// MapLanguage applies the configured language-code remapping table. Codes
// without a mapping pass through unchanged.
func (c *Config) MapLanguage(code string) string {
	if mapped, ok := c.TTS.LanguageMappings[code]; ok {
		return mapped
	}

	return code
}

// userConfigPath returns the standard user config file location.
func userConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), userConfigDirName, userConfigFileName)
	}

	return filepath.Join(homeDir, userConfigDirName, userConfigFileName)
}

// UserEnvPath returns the standard user .env file location used for provider
// credentials.
func UserEnvPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(homeDir, userConfigDirName, ".env")
}
