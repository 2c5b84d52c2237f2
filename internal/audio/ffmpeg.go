// Package audio concatenates and post-processes synthesized audio with an
// external ffmpeg binary.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/book-expert/pdf2audio/internal/fsutil"
)

// Speaking rate bounds, a closed interval.
const (
	MinSpeakingRate = 0.25
	MaxSpeakingRate = 2.0
)

// DefaultBinary is the ffmpeg binary resolved through PATH.
const DefaultBinary = "ffmpeg"

// atempo in ffmpeg accepts [0.5, 100.0]; slower rates are reached by
// chaining filters.
const atempoMinimum = 0.5

// Static errors for audio processing.
var (
	// ErrSpeakingRateRange indicates a rate outside [0.25, 2.0].
	ErrSpeakingRateRange = errors.New("speaking rate out of range")
	// ErrNoInputs indicates a concat request with no input files.
	ErrNoInputs = errors.New("no input files to concatenate")
)

// ValidateSpeakingRate checks the rate against the closed interval
// [MinSpeakingRate, MaxSpeakingRate].
func ValidateSpeakingRate(rate float64) error {
	if rate < MinSpeakingRate || rate > MaxSpeakingRate {
		return fmt.Errorf(
			"%w: must be in [%v, %v], got %v",
			ErrSpeakingRateRange,
			MinSpeakingRate,
			MaxSpeakingRate,
			rate,
		)
	}

	return nil
}

// FFmpeg runs audio operations through an external ffmpeg binary.
type FFmpeg struct {
	binary string
}

// NewFFmpeg creates an FFmpeg executor. An empty binary means DefaultBinary.
func NewFFmpeg(binary string) *FFmpeg {
	if binary == "" {
		binary = DefaultBinary
	}

	return &FFmpeg{binary: binary}
}

// Concat joins the input audio files in order into output using the concat
// demuxer with stream copy, so no re-encoding takes place.
func (f *FFmpeg) Concat(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return ErrNoInputs
	}

	listFile, listErr := writeConcatList(inputs)
	if listErr != nil {
		return listErr
	}

	defer func() {
		_ = os.Remove(listFile)
	}()

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		output,
	}

	return f.run(ctx, args)
}

// AdjustSpeed re-encodes input into output with playback speed scaled by
// rate, using the atempo filter. Rates below the filter's minimum are
// reached by chaining atempo stages.
func (f *FFmpeg) AdjustSpeed(ctx context.Context, input, output string, rate float64) error {
	rateErr := ValidateSpeakingRate(rate)
	if rateErr != nil {
		return rateErr
	}

	args := []string{
		"-y",
		"-i", input,
		"-filter:a", atempoFilter(rate),
		output,
	}

	return f.run(ctx, args)
}

// run executes ffmpeg and surfaces stderr on failure.
func (f *FFmpeg) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.binary, args...)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("%s failed: %w: %s", f.binary, runErr, detail)
		}

		return fmt.Errorf("%s failed: %w", f.binary, runErr)
	}

	return nil
}

// atempoFilter builds the atempo filter expression for rate, chaining stages
// when the rate is below the filter minimum.
func atempoFilter(rate float64) string {
	if rate >= atempoMinimum {
		return fmt.Sprintf("atempo=%g", rate)
	}

	stages := make([]string, 0, 2)
	remaining := rate

	for remaining < atempoMinimum {
		stages = append(stages, fmt.Sprintf("atempo=%g", atempoMinimum))
		remaining /= atempoMinimum
	}

	stages = append(stages, fmt.Sprintf("atempo=%g", remaining))

	return strings.Join(stages, ",")
}

// writeConcatList writes the concat demuxer list file next to the first
// input and returns its path.
func writeConcatList(inputs []string) (string, error) {
	var builder strings.Builder

	for _, input := range inputs {
		absolute, absErr := filepath.Abs(input)
		if absErr != nil {
			return "", fmt.Errorf("failed to resolve input path %s: %w", input, absErr)
		}

		builder.WriteString("file '")
		builder.WriteString(strings.ReplaceAll(absolute, "'", `'\''`))
		builder.WriteString("'\n")
	}

	listFile := filepath.Join(
		filepath.Dir(inputs[0]),
		"concat_list.txt",
	)

	writeErr := fsutil.WriteFileAtomic(listFile, []byte(builder.String()))
	if writeErr != nil {
		return "", writeErr
	}

	return listFile, nil
}
