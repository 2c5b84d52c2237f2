// Package transform orchestrates LLM-backed content transformation.
//
// The orchestrator applies one LLM capability per chunk and recombines the
// results. Provider failures are isolated per chunk: a failed call falls
// back to that chunk's input text and is logged, so an LLM outage degrades
// the output instead of aborting the pipeline.
package transform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/pdf2audio/internal/chunker"
	"github.com/book-expert/pdf2audio/internal/config"
	"github.com/book-expert/pdf2audio/internal/llm"
	"github.com/book-expert/pdf2audio/internal/preclean"
)

// chunkSeparator joins transformed chunks back into a document.
const chunkSeparator = "\n\n"

// Orchestrator applies LLM transformations chunk by chunk.
type Orchestrator struct {
	transformer llm.TextTransformer
	cleaner     *preclean.Cleaner
	log         *logger.Logger
	strategy    chunker.Strategy
	maxChars    int
	ratio       float64
	tolerance   float64
	callTimeout time.Duration
}

// New creates an Orchestrator. The cleaner may be nil when pre-cleaning is
// disabled; zero or negative tuning values fall back to the defaults.
func New(
	transformer llm.TextTransformer,
	cleaner *preclean.Cleaner,
	cfg config.LLMConfig,
	log *logger.Logger,
) (*Orchestrator, error) {
	strategy, strategyErr := chunker.ParseStrategy(cfg.ChunkStrategy)
	if strategyErr != nil {
		return nil, fmt.Errorf("failed to configure chunking: %w", strategyErr)
	}

	maxChars := cfg.MaxChunkChars
	if maxChars < 1 {
		maxChars = config.DefaultMaxChunkChars
	}

	ratio := cfg.SummaryRatio
	if ratio <= 0 {
		ratio = config.DefaultSummaryRatio
	}

	tolerance := cfg.SummaryTolerance
	if tolerance <= 0 {
		tolerance = config.DefaultSummaryTolerance
	}

	timeoutSeconds := cfg.CallTimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = config.DefaultCallTimeoutSecs
	}

	return &Orchestrator{
		transformer: transformer,
		cleaner:     cleaner,
		log:         log,
		strategy:    strategy,
		maxChars:    maxChars,
		ratio:       ratio,
		tolerance:   tolerance,
		callTimeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// PreClean strips boilerplate when a cleaner is configured; otherwise the
// text passes through unchanged.
func (o *Orchestrator) PreClean(text string) string {
	if o.cleaner == nil {
		return text
	}

	return o.cleaner.Clean(text)
}

// CleanDocument pre-cleans, chunks, and rewrites every chunk for narration.
// Chunks whose LLM call fails are carried through unchanged.
func (o *Orchestrator) CleanDocument(ctx context.Context, text string) (string, error) {
	prepared := o.PreClean(text)

	chunks, chunkErr := chunker.Chunk(prepared, o.strategy, o.maxChars)
	if chunkErr != nil {
		return "", fmt.Errorf("failed to chunk text for cleaning: %w", chunkErr)
	}

	cleaned := make([]string, 0, len(chunks))

	for index, chunk := range chunks {
		result, callErr := o.callWithTimeout(ctx, func(callCtx context.Context) (string, error) {
			return o.transformer.CleanText(callCtx, chunk)
		})
		if callErr != nil {
			o.log.Warn(
				"Cleaning failed for chunk %d of %d, keeping original text: %v",
				index+1,
				len(chunks),
				callErr,
			)

			result = chunk
		}

		cleaned = append(cleaned, result)
	}

	return strings.Join(cleaned, chunkSeparator), nil
}

// TagSSML chunks the text and adds SSML markup to every chunk. Chunks whose
// LLM call fails are carried through untagged.
func (o *Orchestrator) TagSSML(ctx context.Context, text string) (string, error) {
	chunks, chunkErr := chunker.Chunk(text, o.strategy, o.maxChars)
	if chunkErr != nil {
		return "", fmt.Errorf("failed to chunk text for ssml tagging: %w", chunkErr)
	}

	tagged := make([]string, 0, len(chunks))

	for index, chunk := range chunks {
		result, callErr := o.callWithTimeout(ctx, func(callCtx context.Context) (string, error) {
			return o.transformer.ApplySSML(callCtx, chunk)
		})
		if callErr != nil {
			o.log.Warn(
				"SSML tagging failed for chunk %d of %d, keeping plain text: %v",
				index+1,
				len(chunks),
				callErr,
			)

			result = chunk
		}

		tagged = append(tagged, result)
	}

	return strings.Join(tagged, chunkSeparator), nil
}

// SummarizeDocument pre-cleans, chunks, summarizes each chunk with a word
// target proportional to its share of the document, merges the chunk
// summaries, and expands the result at most once when it falls short of the
// overall target.
func (o *Orchestrator) SummarizeDocument(
	ctx context.Context, text, language string,
) (string, error) {
	prepared := o.PreClean(text)

	chunks, chunkErr := chunker.Chunk(prepared, o.strategy, o.maxChars)
	if chunkErr != nil {
		return "", fmt.Errorf("failed to chunk text for summarization: %w", chunkErr)
	}

	totalWords := wordCount(prepared)
	overallTarget := int(float64(totalWords) * o.ratio)

	summaries := make([]string, 0, len(chunks))

	for index, chunk := range chunks {
		chunkTarget := proportionalTarget(overallTarget, wordCount(chunk), totalWords)

		result, callErr := o.callWithTimeout(ctx, func(callCtx context.Context) (string, error) {
			return o.transformer.SummarizeText(callCtx, chunk, language, chunkTarget)
		})
		if callErr != nil {
			o.log.Warn(
				"Summarization failed for chunk %d of %d, keeping original text: %v",
				index+1,
				len(chunks),
				callErr,
			)

			result = chunk
		}

		summaries = append(summaries, result)
	}

	combined := strings.Join(summaries, chunkSeparator)

	merged := combined
	if len(chunks) > 1 {
		result, mergeErr := o.callWithTimeout(ctx, func(callCtx context.Context) (string, error) {
			return o.transformer.MergeSummaries(callCtx, combined, language, overallTarget)
		})
		if mergeErr != nil {
			o.log.Warn(
				"Merging summaries failed, keeping concatenated summaries: %v",
				mergeErr,
			)
		} else {
			merged = result
		}
	}

	if wordCount(merged) < int(float64(overallTarget)*o.tolerance) {
		result, expandErr := o.callWithTimeout(ctx, func(callCtx context.Context) (string, error) {
			return o.transformer.ExpandSummary(
				callCtx,
				merged,
				combined,
				language,
				overallTarget,
			)
		})
		if expandErr != nil {
			o.log.Warn("Expanding summary failed, keeping short summary: %v", expandErr)
		} else {
			merged = result
		}
	}

	return merged, nil
}

// callWithTimeout bounds a single provider call with the configured timeout.
func (o *Orchestrator) callWithTimeout(
	ctx context.Context,
	call func(context.Context) (string, error),
) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	return call(callCtx)
}

// proportionalTarget splits the overall word target across chunks by word
// share.
func proportionalTarget(overallTarget, chunkWords, totalWords int) int {
	if totalWords == 0 {
		return 0
	}

	return overallTarget * chunkWords / totalWords
}

// wordCount counts whitespace-separated words.
func wordCount(text string) int {
	return len(strings.Fields(text))
}
