// Package tts_test tests the synthesis dispatcher and provider plumbing.
package tts_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/pdf2audio/internal/audio"
	"github.com/book-expert/pdf2audio/internal/tts"
)

var errSynthDown = errors.New("synthesizer down")

// mockSynth is a scriptable Synthesizer.
type mockSynth struct {
	maxChars    int
	ssml        bool
	appliesRate bool
	failFirst   bool
	failAll     bool

	inputs []string
}

func (m *mockSynth) Synthesize(_ context.Context, text, _ string) ([]byte, error) {
	index := len(m.inputs)
	m.inputs = append(m.inputs, text)

	if m.failAll || (m.failFirst && index == 0) {
		return nil, errSynthDown
	}

	return []byte(fmt.Sprintf("audio-%d", index)), nil
}

func (m *mockSynth) MaxInputChars(_ bool) int { return m.maxChars }

func (m *mockSynth) SupportsSSML() bool { return m.ssml }

func (m *mockSynth) AppliesSpeakingRate() bool { return m.appliesRate }

// mockProcessor records concat and speed-adjust calls and materializes the
// output file.
type mockProcessor struct {
	concatInputs []string
	concatOutput string
	adjustInput  string
	adjustOutput string
	adjustRate   float64
}

func (m *mockProcessor) Concat(_ context.Context, inputs []string, output string) error {
	m.concatInputs = append([]string(nil), inputs...)
	m.concatOutput = output

	return os.WriteFile(output, []byte("merged"), 0o600)
}

func (m *mockProcessor) AdjustSpeed(
	_ context.Context, input, output string, rate float64,
) error {
	m.adjustInput = input
	m.adjustOutput = output
	m.adjustRate = rate

	return os.WriteFile(output, []byte("adjusted"), 0o600)
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "tts-test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = log.Close()
	})

	return log
}

func TestNewDispatcher_RejectsBadRate(t *testing.T) {
	t.Parallel()

	_, err := tts.NewDispatcher(
		&mockSynth{maxChars: 100},
		&mockProcessor{},
		newTestLogger(t),
		3.0,
		false,
	)
	require.ErrorIs(t, err, audio.ErrSpeakingRateRange)
}

func TestSynthesize_EmptyChunks(t *testing.T) {
	t.Parallel()

	dispatcher, err := tts.NewDispatcher(
		&mockSynth{maxChars: 100},
		&mockProcessor{},
		newTestLogger(t),
		1.0,
		false,
	)
	require.NoError(t, err)

	synthErr := dispatcher.Synthesize(
		t.Context(),
		[]string{"", ""},
		"en",
		filepath.Join(t.TempDir(), "out.mp3"),
	)
	require.ErrorIs(t, synthErr, tts.ErrNoChunks)
}

func TestSynthesize_ConcatenatesInOrder(t *testing.T) {
	t.Parallel()

	synth := &mockSynth{maxChars: 1000, appliesRate: true}
	processor := &mockProcessor{}

	dispatcher, err := tts.NewDispatcher(synth, processor, newTestLogger(t), 1.0, false)
	require.NoError(t, err)

	output := filepath.Join(t.TempDir(), "out.mp3")

	synthErr := dispatcher.Synthesize(
		t.Context(),
		[]string{"First chunk.", "Second chunk."},
		"en",
		output,
	)
	require.NoError(t, synthErr)

	assert.Equal(t, []string{"First chunk.", "Second chunk."}, synth.inputs)
	assert.Equal(t, output, processor.concatOutput)
	require.Len(t, processor.concatInputs, 2)
	assert.Less(t, processor.concatInputs[0], processor.concatInputs[1])
	assert.Empty(t, processor.adjustOutput)
}

func TestSynthesize_RechunksToProviderLimit(t *testing.T) {
	t.Parallel()

	synth := &mockSynth{maxChars: 30, appliesRate: true}
	processor := &mockProcessor{}

	dispatcher, err := tts.NewDispatcher(synth, processor, newTestLogger(t), 1.0, false)
	require.NoError(t, err)

	long := "One short sentence. Another short sentence. And a third one."

	synthErr := dispatcher.Synthesize(
		t.Context(),
		[]string{long},
		"en",
		filepath.Join(t.TempDir(), "out.mp3"),
	)
	require.NoError(t, synthErr)

	assert.Greater(t, len(synth.inputs), 1)

	for _, input := range synth.inputs {
		assert.LessOrEqual(t, len(input), 30)
	}
}

func TestSynthesize_SkipsFailedChunk(t *testing.T) {
	t.Parallel()

	synth := &mockSynth{maxChars: 1000, appliesRate: true, failFirst: true}
	processor := &mockProcessor{}

	dispatcher, err := tts.NewDispatcher(synth, processor, newTestLogger(t), 1.0, false)
	require.NoError(t, err)

	synthErr := dispatcher.Synthesize(
		t.Context(),
		[]string{"Bad chunk.", "Good chunk."},
		"en",
		filepath.Join(t.TempDir(), "out.mp3"),
	)
	require.NoError(t, synthErr)

	require.Len(t, processor.concatInputs, 1)
	assert.True(t, strings.HasSuffix(processor.concatInputs[0], "chunk_0001.mp3"))
}

func TestSynthesize_AllChunksFailing(t *testing.T) {
	t.Parallel()

	synth := &mockSynth{maxChars: 1000, failAll: true}
	processor := &mockProcessor{}

	dispatcher, err := tts.NewDispatcher(synth, processor, newTestLogger(t), 1.0, false)
	require.NoError(t, err)

	synthErr := dispatcher.Synthesize(
		t.Context(),
		[]string{"Only chunk."},
		"en",
		filepath.Join(t.TempDir(), "out.mp3"),
	)
	require.ErrorIs(t, synthErr, tts.ErrSynthesisFailed)
	assert.Empty(t, processor.concatOutput)
}

func TestSynthesize_AppliesRateInPostProcessing(t *testing.T) {
	t.Parallel()

	synth := &mockSynth{maxChars: 1000, appliesRate: false}
	processor := &mockProcessor{}

	dispatcher, err := tts.NewDispatcher(synth, processor, newTestLogger(t), 1.5, false)
	require.NoError(t, err)

	output := filepath.Join(t.TempDir(), "out.mp3")

	synthErr := dispatcher.Synthesize(t.Context(), []string{"Text."}, "en", output)
	require.NoError(t, synthErr)

	// Concat lands in scratch space; the final file comes from AdjustSpeed.
	assert.NotEqual(t, output, processor.concatOutput)
	assert.Equal(t, processor.concatOutput, processor.adjustInput)
	assert.Equal(t, output, processor.adjustOutput)
	assert.InEpsilon(t, 1.5, processor.adjustRate, 0.0001)
}

func TestSynthesize_RemovesScratchDirectory(t *testing.T) {
	t.Parallel()

	synth := &mockSynth{maxChars: 1000, appliesRate: true}
	processor := &mockProcessor{}

	dispatcher, err := tts.NewDispatcher(synth, processor, newTestLogger(t), 1.0, false)
	require.NoError(t, err)

	synthErr := dispatcher.Synthesize(
		t.Context(),
		[]string{"Some text."},
		"en",
		filepath.Join(t.TempDir(), "out.mp3"),
	)
	require.NoError(t, synthErr)

	require.NotEmpty(t, processor.concatInputs)

	scratchDir := filepath.Dir(processor.concatInputs[0])
	_, statErr := os.Stat(scratchDir)
	assert.True(t, os.IsNotExist(statErr))
}
