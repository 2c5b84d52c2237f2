package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/book-expert/logger"

	"github.com/book-expert/pdf2audio/internal/audio"
	"github.com/book-expert/pdf2audio/internal/chunker"
	"github.com/book-expert/pdf2audio/internal/fsutil"
)

// chunkFilePattern names per-chunk temporary audio files.
const chunkFilePattern = "chunk_%04d.mp3"

// Static errors for dispatch.
var (
	// ErrNoChunks indicates an empty chunk sequence.
	ErrNoChunks = errors.New("no text chunks to synthesize")
	// ErrSynthesisFailed indicates every chunk failed to synthesize.
	ErrSynthesisFailed = errors.New("synthesis failed for all chunks")
)

// AudioProcessor merges and post-processes synthesized audio files.
type AudioProcessor interface {
	Concat(ctx context.Context, inputs []string, output string) error
	AdjustSpeed(ctx context.Context, input, output string, rate float64) error
}

// Dispatcher drives a Synthesizer over an ordered chunk sequence and merges
// the results into one audio file. Chunks are re-split down to the
// provider's input limit before synthesis; per-chunk temporary files live in
// a scratch directory removed on every exit path.
type Dispatcher struct {
	synth        Synthesizer
	processor    AudioProcessor
	log          *logger.Logger
	speakingRate float64
	ssml         bool
}

// NewDispatcher creates a Dispatcher. The speaking rate is validated here so
// an out-of-range rate fails before any synthesis work.
func NewDispatcher(
	synth Synthesizer,
	processor AudioProcessor,
	log *logger.Logger,
	speakingRate float64,
	ssml bool,
) (*Dispatcher, error) {
	rateErr := audio.ValidateSpeakingRate(speakingRate)
	if rateErr != nil {
		return nil, rateErr
	}

	return &Dispatcher{
		synth:        synth,
		processor:    processor,
		log:          log,
		speakingRate: speakingRate,
		ssml:         ssml,
	}, nil
}

// Synthesize converts the ordered chunks into a single MP3 at outputPath.
// Individual chunk failures are logged and skipped; only a run where every
// chunk fails is an error.
func (d *Dispatcher) Synthesize(
	ctx context.Context,
	chunks []string,
	language string,
	outputPath string,
) error {
	pieces := d.rechunk(chunks)
	if len(pieces) == 0 {
		return ErrNoChunks
	}

	dirErr := fsutil.EnsureDir(filepath.Dir(outputPath))
	if dirErr != nil {
		return dirErr
	}

	scratchDir, tempErr := os.MkdirTemp("", "pdf2audio-*")
	if tempErr != nil {
		return fmt.Errorf("failed to create scratch directory: %w", tempErr)
	}

	defer func() {
		_ = os.RemoveAll(scratchDir)
	}()

	files, synthErr := d.synthesizePieces(ctx, pieces, language, scratchDir)
	if synthErr != nil {
		return synthErr
	}

	return d.merge(ctx, files, scratchDir, outputPath)
}

// rechunk splits pipeline chunks down to the provider's input limit while
// keeping order. Tagged text goes through the markup-preserving splitter;
// sentence splitting would rewrite punctuation and cut inside tags.
func (d *Dispatcher) rechunk(chunks []string) []string {
	limit := d.synth.MaxInputChars(d.ssml)

	pieces := make([]string, 0, len(chunks))

	for _, chunk := range chunks {
		if chunk == "" {
			continue
		}

		if d.ssml {
			pieces = append(pieces, splitSSML(chunk, limit)...)

			continue
		}

		pieces = append(pieces, chunker.ChunkBySentenceWord(chunk, limit)...)
	}

	return pieces
}

// synthesizePieces synthesizes each piece to a numbered file in scratchDir,
// skipping failed pieces. All pieces failing is an error.
func (d *Dispatcher) synthesizePieces(
	ctx context.Context,
	pieces []string,
	language string,
	scratchDir string,
) ([]string, error) {
	files := make([]string, 0, len(pieces))

	var lastErr error

	for index, piece := range pieces {
		audioBytes, synthErr := d.synth.Synthesize(ctx, piece, language)
		if synthErr != nil {
			lastErr = synthErr

			d.log.Warn(
				"Synthesis failed for chunk %d of %d, skipping: %v",
				index+1,
				len(pieces),
				synthErr,
			)

			continue
		}

		path := filepath.Join(scratchDir, fmt.Sprintf(chunkFilePattern, index))

		writeErr := fsutil.WriteFileAtomic(path, audioBytes)
		if writeErr != nil {
			return nil, writeErr
		}

		files = append(files, path)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, lastErr)
	}

	return files, nil
}

// merge concatenates the per-chunk files into outputPath, applying the
// speaking rate in post-processing when the provider did not apply it
// natively.
func (d *Dispatcher) merge(
	ctx context.Context,
	files []string,
	scratchDir string,
	outputPath string,
) error {
	needsRateAdjust := d.speakingRate != 1.0 && !d.synth.AppliesSpeakingRate()

	if !needsRateAdjust {
		concatErr := d.processor.Concat(ctx, files, outputPath)
		if concatErr != nil {
			return fmt.Errorf("failed to concatenate audio: %w", concatErr)
		}

		return nil
	}

	combined := filepath.Join(scratchDir, "combined.mp3")

	concatErr := d.processor.Concat(ctx, files, combined)
	if concatErr != nil {
		return fmt.Errorf("failed to concatenate audio: %w", concatErr)
	}

	adjustErr := d.processor.AdjustSpeed(ctx, combined, outputPath, d.speakingRate)
	if adjustErr != nil {
		return fmt.Errorf("failed to adjust audio speed: %w", adjustErr)
	}

	return nil
}
