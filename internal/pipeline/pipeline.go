// Package pipeline drives a document conversion end to end: extract,
// transform, chunk, synthesize, and record the run in a job manifest.
//
// Every stage writes its output under an artifact directory named after the
// output stem. A later run resuming from the manifest loads existing stage
// artifacts instead of recomputing them, so interrupted jobs pick up where
// they stopped.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/logger"

	"github.com/book-expert/pdf2audio/internal/chunker"
	"github.com/book-expert/pdf2audio/internal/extract"
	"github.com/book-expert/pdf2audio/internal/fsutil"
	"github.com/book-expert/pdf2audio/internal/manifest"
)

// Artifact file names inside the artifact directory.
const (
	rawArtifact     = "raw.txt"
	cleanedArtifact = "cleaned.txt"
	summaryArtifact = "summary.txt"
	ssmlArtifact    = "ssml.txt"
	chunksDirName   = "chunks"
	chunkFileFormat = "chunk_%04d.txt"
)

// Static errors for pipeline validation.
var (
	// ErrEmptyExtraction indicates the document yielded no usable text.
	ErrEmptyExtraction = errors.New("extracted text is empty")
	// ErrSummarizeWithoutLLM indicates summarization was requested while
	// LLM processing is disabled or unselected.
	ErrSummarizeWithoutLLM = errors.New("summarization requires an llm provider")
)

// Extractor pulls plain text out of the input document.
type Extractor interface {
	Extract(path string) (*extract.Result, error)
}

// Transformer applies LLM-backed content transformations.
type Transformer interface {
	PreClean(text string) string
	CleanDocument(ctx context.Context, text string) (string, error)
	TagSSML(ctx context.Context, text string) (string, error)
	SummarizeDocument(ctx context.Context, text, language string) (string, error)
}

// Dispatcher converts ordered text chunks into the output audio file.
type Dispatcher interface {
	Synthesize(ctx context.Context, chunks []string, language, outputPath string) error
}

// Options carries the effective per-run parameters.
type Options struct {
	PDFPath         string
	MP3Path         string
	ConfigPath      string
	Language        string
	SummaryLanguage string
	TTSProvider     string
	LLMProvider     string
	SpeakingRate    float64
	Slow            bool
	NoLLM           bool
	Summarize       bool
	SSML            bool
	SSMLSupported   bool
	DryRun          bool
	ChunkStrategy   chunker.Strategy
	MaxChunkChars   int
}

// Result reports the terminal state of a run.
type Result struct {
	Manifest   *manifest.Manifest
	State      string
	ChunkCount int
}

// Pipeline wires the stages together. The transformer is nil when LLM
// processing is disabled; the dispatcher is always set but unused in
// dry-run mode.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	dispatcher  Dispatcher
	log         *logger.Logger
}

// New creates a Pipeline.
func New(
	extractor Extractor,
	transformer Transformer,
	dispatcher Dispatcher,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		extractor:   extractor,
		transformer: transformer,
		dispatcher:  dispatcher,
		log:         log,
	}
}

// Run executes the conversion described by opts. A prior manifest, when
// supplied, makes the run a resume: completed stage artifacts referenced by
// it are loaded instead of recomputed and the job identity is kept. The
// manifest is persisted on every exit path, including failures.
func (p *Pipeline) Run(
	ctx context.Context,
	opts Options,
	prior *manifest.Manifest,
) (*Result, error) {
	if opts.Summarize && !opts.DryRun && (opts.NoLLM || p.transformer == nil) {
		return nil, ErrSummarizeWithoutLLM
	}

	job := p.prepareManifest(opts, prior)
	manifestPath := manifest.PathFor(opts.MP3Path)

	result, runErr := p.run(ctx, opts, job, prior)
	if runErr != nil {
		job.SetFailure(runErr)

		saveErr := job.Save(manifestPath)
		if saveErr != nil {
			p.log.Error("Failed to save manifest after error: %v", saveErr)
		}

		return nil, runErr
	}

	saveErr := job.Save(manifestPath)
	if saveErr != nil {
		return nil, fmt.Errorf("failed to persist manifest: %w", saveErr)
	}

	return result, nil
}

// run walks the stage sequence and returns the terminal result.
func (p *Pipeline) run(
	ctx context.Context,
	opts Options,
	job *manifest.Manifest,
	prior *manifest.Manifest,
) (*Result, error) {
	artifactsDir := artifactDir(opts.MP3Path)
	job.Outputs.ArtifactsDir = artifactsDir

	text, extractErr := p.extractStage(opts, job, prior, artifactsDir)
	if extractErr != nil {
		return nil, extractErr
	}

	text, transformErr := p.transformStage(ctx, opts, job, prior, artifactsDir, text)
	if transformErr != nil {
		return nil, transformErr
	}

	text, ssmlErr := p.ssmlStage(ctx, opts, job, artifactsDir, text)
	if ssmlErr != nil {
		return nil, ssmlErr
	}

	chunks, chunkErr := p.chunkStage(opts, job, artifactsDir, text)
	if chunkErr != nil {
		return nil, chunkErr
	}

	if opts.DryRun {
		job.SetState(manifest.StateDryRunCompleted)

		return &Result{
			Manifest:   job,
			State:      manifest.StateDryRunCompleted,
			ChunkCount: len(chunks),
		}, nil
	}

	synthErr := p.dispatcher.Synthesize(ctx, chunks, opts.Language, opts.MP3Path)
	if synthErr != nil {
		return nil, fmt.Errorf("synthesis failed: %w", synthErr)
	}

	job.SetState(manifest.StateCompleted)

	return &Result{
		Manifest:   job,
		State:      manifest.StateCompleted,
		ChunkCount: len(chunks),
	}, nil
}

// extractStage loads the raw text, from the prior run's artifact when
// available, otherwise from the PDF.
func (p *Pipeline) extractStage(
	opts Options,
	job *manifest.Manifest,
	prior *manifest.Manifest,
	artifactsDir string,
) (string, error) {
	if prior != nil && fsutil.FileExists(prior.Artifacts.RawText) {
		data, readErr := os.ReadFile(prior.Artifacts.RawText)
		if readErr != nil {
			return "", fmt.Errorf("failed to read raw-text artifact: %w", readErr)
		}

		p.log.Info("Resuming with raw text from %s", prior.Artifacts.RawText)
		job.Artifacts.RawText = prior.Artifacts.RawText
		job.SetState(manifest.StateExtracted)

		return string(data), nil
	}

	extracted, extractErr := p.extractor.Extract(opts.PDFPath)
	if extractErr != nil {
		return "", fmt.Errorf("extraction failed: %w", extractErr)
	}

	if strings.TrimSpace(extracted.Text) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyExtraction, opts.PDFPath)
	}

	if extracted.SkippedPages > 0 {
		p.log.Warn(
			"Skipped %d of %d pages during extraction",
			extracted.SkippedPages,
			extracted.TotalPages,
		)
	}

	rawPath := filepath.Join(artifactsDir, rawArtifact)

	writeErr := fsutil.WriteFileAtomic(rawPath, []byte(extracted.Text))
	if writeErr != nil {
		return "", writeErr
	}

	job.Artifacts.RawText = rawPath
	job.SetState(manifest.StateExtracted)

	return extracted.Text, nil
}

// transformStage runs the Clean, Summarize, or Skip branch.
func (p *Pipeline) transformStage(
	ctx context.Context,
	opts Options,
	job *manifest.Manifest,
	prior *manifest.Manifest,
	artifactsDir string,
	text string,
) (string, error) {
	skip := opts.NoLLM || opts.DryRun || p.transformer == nil

	if skip {
		if prior != nil && fsutil.FileExists(prior.Artifacts.SummaryText) {
			return p.loadPriorArtifact(job, prior.Artifacts.SummaryText, manifest.StateSummarized)
		}

		if prior != nil && fsutil.FileExists(prior.Artifacts.CleanedText) {
			return p.loadPriorArtifact(job, prior.Artifacts.CleanedText, manifest.StateCleaned)
		}

		return text, nil
	}

	if opts.Summarize {
		if prior != nil && fsutil.FileExists(prior.Artifacts.SummaryText) {
			return p.loadPriorArtifact(job, prior.Artifacts.SummaryText, manifest.StateSummarized)
		}

		summary, summarizeErr := p.transformer.SummarizeDocument(
			ctx,
			text,
			opts.SummaryLanguage,
		)
		if summarizeErr != nil {
			return "", fmt.Errorf("summarization failed: %w", summarizeErr)
		}

		summaryPath := filepath.Join(artifactsDir, summaryArtifact)

		writeErr := fsutil.WriteFileAtomic(summaryPath, []byte(summary))
		if writeErr != nil {
			return "", writeErr
		}

		job.Artifacts.SummaryText = summaryPath
		job.SetState(manifest.StateSummarized)

		return summary, nil
	}

	if prior != nil && fsutil.FileExists(prior.Artifacts.CleanedText) {
		return p.loadPriorArtifact(job, prior.Artifacts.CleanedText, manifest.StateCleaned)
	}

	cleaned, cleanErr := p.transformer.CleanDocument(ctx, text)
	if cleanErr != nil {
		return "", fmt.Errorf("cleaning failed: %w", cleanErr)
	}

	cleanedPath := filepath.Join(artifactsDir, cleanedArtifact)

	writeErr := fsutil.WriteFileAtomic(cleanedPath, []byte(cleaned))
	if writeErr != nil {
		return "", writeErr
	}

	job.Artifacts.CleanedText = cleanedPath
	job.SetState(manifest.StateCleaned)

	return cleaned, nil
}

// ssmlStage tags the text with SSML when requested and supported.
func (p *Pipeline) ssmlStage(
	ctx context.Context,
	opts Options,
	job *manifest.Manifest,
	artifactsDir string,
	text string,
) (string, error) {
	if !opts.SSML {
		return text, nil
	}

	if p.transformer == nil || opts.NoLLM {
		p.log.Warn("SSML requested without an llm provider, skipping tagging")

		return text, nil
	}

	if !opts.SSMLSupported {
		p.log.Warn(
			"TTS provider %s does not support SSML, skipping tagging",
			opts.TTSProvider,
		)

		return text, nil
	}

	tagged, tagErr := p.transformer.TagSSML(ctx, text)
	if tagErr != nil {
		return "", fmt.Errorf("ssml tagging failed: %w", tagErr)
	}

	ssmlPath := filepath.Join(artifactsDir, ssmlArtifact)

	writeErr := fsutil.WriteFileAtomic(ssmlPath, []byte(tagged))
	if writeErr != nil {
		return "", writeErr
	}

	job.Artifacts.SSMLText = ssmlPath

	return tagged, nil
}

// chunkStage splits the final text and writes one file per chunk.
func (p *Pipeline) chunkStage(
	opts Options,
	job *manifest.Manifest,
	artifactsDir string,
	text string,
) ([]string, error) {
	chunks, chunkErr := chunker.Chunk(text, opts.ChunkStrategy, opts.MaxChunkChars)
	if chunkErr != nil {
		return nil, fmt.Errorf("chunking failed: %w", chunkErr)
	}

	chunksDir := filepath.Join(artifactsDir, chunksDirName)
	chunkPaths := make([]string, 0, len(chunks))

	for index, chunk := range chunks {
		path := filepath.Join(chunksDir, fmt.Sprintf(chunkFileFormat, index))

		writeErr := fsutil.WriteFileAtomic(path, []byte(chunk))
		if writeErr != nil {
			return nil, writeErr
		}

		chunkPaths = append(chunkPaths, path)
	}

	job.Artifacts.ChunksDir = chunksDir
	job.Artifacts.Chunks = chunkPaths

	return chunks, nil
}

// loadPriorArtifact reads a stage artifact recorded by an earlier run.
func (p *Pipeline) loadPriorArtifact(
	job *manifest.Manifest,
	path, state string,
) (string, error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return "", fmt.Errorf("failed to read stage artifact %s: %w", path, readErr)
	}

	p.log.Info("Resuming with stage artifact %s", path)

	switch state {
	case manifest.StateSummarized:
		job.Artifacts.SummaryText = path
	case manifest.StateCleaned:
		job.Artifacts.CleanedText = path
	}

	job.SetState(state)

	return string(data), nil
}

// prepareManifest builds the job record, keeping the identity of a resumed
// job.
func (p *Pipeline) prepareManifest(
	opts Options,
	prior *manifest.Manifest,
) *manifest.Manifest {
	job := manifest.New(
		manifest.Inputs{
			PDFPath:    opts.PDFPath,
			ConfigPath: opts.ConfigPath,
		},
		manifest.Outputs{
			MP3Path:      opts.MP3Path,
			ArtifactsDir: "",
		},
		manifest.Params{
			TTSProvider:     opts.TTSProvider,
			Language:        opts.Language,
			SpeakingRate:    opts.SpeakingRate,
			Slow:            opts.Slow,
			LLMProvider:     opts.LLMProvider,
			Clean:           !opts.NoLLM && !opts.Summarize,
			Summarize:       opts.Summarize,
			SummaryLanguage: opts.SummaryLanguage,
			SSML:            opts.SSML,
			DryRun:          opts.DryRun,
			ChunkStrategy:   string(opts.ChunkStrategy),
			MaxChunkChars:   opts.MaxChunkChars,
		},
	)

	if prior != nil {
		job.ID = prior.ID
		job.CreatedAt = prior.CreatedAt
	}

	return job
}

// artifactDir names the artifact directory after the output stem, with
// filesystem-hostile characters replaced.
func artifactDir(mp3Path string) string {
	stem := strings.TrimSuffix(mp3Path, filepath.Ext(mp3Path))

	return filepath.Join(
		filepath.Dir(stem),
		fsutil.SanitizeFilename(filepath.Base(stem)),
	)
}
