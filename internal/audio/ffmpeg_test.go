// Package audio_test tests speaking-rate validation and ffmpeg invocation
// plumbing.
package audio_test

import (
	"testing"

	"github.com/book-expert/pdf2audio/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSpeakingRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rate    float64
		wantErr bool
	}{
		{name: "lower bound", rate: 0.25, wantErr: false},
		{name: "upper bound", rate: 2.0, wantErr: false},
		{name: "normal", rate: 1.0, wantErr: false},
		{name: "slightly fast", rate: 1.25, wantErr: false},
		{name: "below range", rate: 0.24, wantErr: true},
		{name: "above range", rate: 2.01, wantErr: true},
		{name: "zero", rate: 0, wantErr: true},
		{name: "negative", rate: -1, wantErr: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			err := audio.ValidateSpeakingRate(testCase.rate)
			if testCase.wantErr {
				require.ErrorIs(t, err, audio.ErrSpeakingRateRange)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestConcat_NoInputs(t *testing.T) {
	t.Parallel()

	ffmpeg := audio.NewFFmpeg("")

	err := ffmpeg.Concat(t.Context(), nil, "out.mp3")
	require.ErrorIs(t, err, audio.ErrNoInputs)
}

func TestAdjustSpeed_RejectsBadRateBeforeRunning(t *testing.T) {
	t.Parallel()

	// The binary does not exist; an out-of-range rate must fail before any
	// attempt to execute it.
	ffmpeg := audio.NewFFmpeg("/nonexistent/ffmpeg")

	err := ffmpeg.AdjustSpeed(t.Context(), "in.mp3", "out.mp3", 5.0)
	require.ErrorIs(t, err, audio.ErrSpeakingRateRange)
}
