package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/pdf2audio/internal/config"
	"github.com/book-expert/pdf2audio/internal/manifest"
)

func TestValidateFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		flags   appFlags
		wantErr string
	}{
		{
			name:    "pdf and mp3",
			flags:   appFlags{pdf: "in.pdf", mp3: "out.mp3"},
			wantErr: "",
		},
		{
			name:    "job only",
			flags:   appFlags{job: "out.job.json"},
			wantErr: "",
		},
		{
			name:    "nothing given",
			flags:   appFlags{},
			wantErr: errNeedPDFAndMP3,
		},
		{
			name:    "pdf without mp3",
			flags:   appFlags{pdf: "in.pdf"},
			wantErr: errNeedPDFAndMP3,
		},
		{
			name:    "job with pdf",
			flags:   appFlags{job: "out.job.json", pdf: "in.pdf"},
			wantErr: errJobExcludesPaths,
		},
		{
			name: "summarize with no-llm",
			flags: appFlags{
				pdf: "in.pdf", mp3: "out.mp3",
				summarize: true, noLLM: true, cleanerLLM: "openai",
			},
			wantErr: errSummarizeNoLLM,
		},
		{
			name: "summarize without cleaner-llm",
			flags: appFlags{
				pdf: "in.pdf", mp3: "out.mp3", summarize: true,
			},
			wantErr: errSummarizeNeedsLLM,
		},
		{
			name: "summarize with cleaner-llm",
			flags: appFlags{
				pdf: "in.pdf", mp3: "out.mp3",
				summarize: true, cleanerLLM: "gemini",
			},
			wantErr: "",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			err := validateFlags(testCase.flags)
			if testCase.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Equal(t, testCase.wantErr, err.Error())
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	applyFlagOverrides(&cfg, appFlags{
		ttsProvider:   "aws",
		lang:          "de",
		cleanerLLM:    "gemini",
		chunkStrategy: "sentence",
		chunkSize:     1200,
		verbose:       true,
	})

	assert.Equal(t, "aws", cfg.TTS.Provider)
	assert.Equal(t, "de", cfg.TTS.DefaultLanguage)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "sentence", cfg.LLM.ChunkStrategy)
	assert.Equal(t, 1200, cfg.LLM.MaxChunkChars)
	assert.True(t, cfg.Output.Verbose)
}

func savePriorManifest(t *testing.T, params manifest.Params) (string, string) {
	t.Helper()

	dir := t.TempDir()
	mp3Path := filepath.Join(dir, "book.mp3")

	job := manifest.New(
		manifest.Inputs{PDFPath: filepath.Join(dir, "book.pdf"), ConfigPath: ""},
		manifest.Outputs{MP3Path: mp3Path, ArtifactsDir: ""},
		params,
	)

	manifestPath := manifest.PathFor(mp3Path)
	require.NoError(t, job.Save(manifestPath))

	return manifestPath, mp3Path
}

func TestBuildOptions_ResumeReplaysRecordedRun(t *testing.T) {
	t.Parallel()

	manifestPath, mp3Path := savePriorManifest(t, manifest.Params{
		TTSProvider:     "gtts",
		Language:        "en",
		SpeakingRate:    1.5,
		Slow:            true,
		LLMProvider:     "",
		Clean:           false,
		Summarize:       false,
		SummaryLanguage: "",
		SSML:            false,
		DryRun:          false,
		ChunkStrategy:   "sentence",
		MaxChunkChars:   500,
	})

	cfg := config.Default()

	opts, prior, err := buildOptions(appFlags{job: manifestPath}, &cfg)
	require.NoError(t, err)
	require.NotNil(t, prior)

	assert.Equal(t, mp3Path, opts.MP3Path)

	// The recorded run never used an LLM; the replay must not either.
	assert.True(t, opts.NoLLM)

	// Chunking and rate come from the record, not the current config.
	assert.Equal(t, "sentence", cfg.LLM.ChunkStrategy)
	assert.Equal(t, 500, cfg.LLM.MaxChunkChars)
	assert.InEpsilon(t, 1.5, cfg.TTS.SpeakingRate, 0.0001)
	assert.InEpsilon(t, 1.5, opts.SpeakingRate, 0.0001)
	assert.True(t, cfg.TTS.Slow)
}

func TestBuildOptions_ResumeFlagsStillOverride(t *testing.T) {
	t.Parallel()

	manifestPath, _ := savePriorManifest(t, manifest.Params{
		TTSProvider:     "gtts",
		Language:        "en",
		SpeakingRate:    1.0,
		Slow:            false,
		LLMProvider:     "",
		Clean:           false,
		Summarize:       false,
		SummaryLanguage: "",
		SSML:            false,
		DryRun:          false,
		ChunkStrategy:   "sentence",
		MaxChunkChars:   500,
	})

	cfg := config.Default()
	flags := appFlags{job: manifestPath, chunkSize: 900}
	applyFlagOverrides(&cfg, flags)

	_, _, err := buildOptions(flags, &cfg)
	require.NoError(t, err)

	assert.Equal(t, 900, cfg.LLM.MaxChunkChars)
	assert.Equal(t, "sentence", cfg.LLM.ChunkStrategy)
}

func TestApplyFlagOverrides_EmptyFlagsKeepConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	applyFlagOverrides(&cfg, appFlags{})

	defaults := config.Default()
	assert.Equal(t, defaults.TTS.Provider, cfg.TTS.Provider)
	assert.Equal(t, defaults.TTS.DefaultLanguage, cfg.TTS.DefaultLanguage)
	assert.Equal(t, defaults.LLM.MaxChunkChars, cfg.LLM.MaxChunkChars)
}
