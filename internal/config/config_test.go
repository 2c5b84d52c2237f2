// Package config_test tests configuration loading and layering.
package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/pdf2audio/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefault_CoreValues(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	assert.Equal(t, "gtts", cfg.TTS.Provider)
	assert.Equal(t, "en", cfg.TTS.DefaultLanguage)
	assert.InEpsilon(t, 1.0, cfg.TTS.SpeakingRate, 0.0001)
	assert.Equal(t, "paragraph", cfg.LLM.ChunkStrategy)
	assert.Equal(t, config.DefaultMaxChunkChars, cfg.LLM.MaxChunkChars)
	assert.InEpsilon(t, config.DefaultSummaryRatio, cfg.LLM.SummaryRatio, 0.0001)
	assert.True(t, cfg.LLM.Preclean.Enabled)
	assert.Equal(t, "tts-1", cfg.TTS.Voice.OpenAI.Model)
	assert.Equal(t, "Joanna", cfg.TTS.Voice.AWS.VoiceID)
}

func TestLoad_OverlaysUserFileOnDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `
[tts]
provider = "openai"
speaking_rate = 1.5

[llm]
max_chunk_chars = 2000
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	// Overridden fields take the file values.
	assert.Equal(t, "openai", cfg.TTS.Provider)
	assert.InEpsilon(t, 1.5, cfg.TTS.SpeakingRate, 0.0001)
	assert.Equal(t, 2000, cfg.LLM.MaxChunkChars)

	// Untouched fields keep their defaults.
	assert.Equal(t, "en", cfg.TTS.DefaultLanguage)
	assert.InEpsilon(t, config.DefaultSummaryRatio, cfg.LLM.SummaryRatio, 0.0001)
	assert.Equal(t, "alloy", cfg.TTS.Voice.OpenAI.Voice)
}

func TestLoad_ExplicitMissingPathFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "no-such-config.toml")

	cfg, err := config.Load(path)
	require.Error(t, err)
	require.ErrorIs(t, err, config.ErrConfigNotFound)
	assert.Nil(t, cfg)
}

func TestLoad_MalformedTOMLFails(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, "[tts\nprovider =")

	cfg, err := config.Load(path)
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_NestedVoiceOverride(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `
[tts.voice.aws]
voice_id = "Matthew"
region = "eu-west-1"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Matthew", cfg.TTS.Voice.AWS.VoiceID)
	assert.Equal(t, "eu-west-1", cfg.TTS.Voice.AWS.Region)
	assert.Equal(t, "neural", cfg.TTS.Voice.AWS.Engine)
}

func TestMapLanguage(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	tests := []struct {
		name     string
		code     string
		expected string
	}{
		{name: "mapped latin american spanish", code: "es_la", expected: "es"},
		{name: "mapped brazilian portuguese", code: "pt_br", expected: "pt"},
		{name: "unmapped passes through", code: "fr", expected: "fr"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, cfg.MapLanguage(testCase.code))
		})
	}
}

func TestMapLanguage_CustomMappingFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `
[tts.language_mappings]
en_gb = "en"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.MapLanguage("en_gb"))
}
