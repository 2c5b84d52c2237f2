// Package llm provides text-transformation providers backed by large
// language models.
//
// Providers implement TextTransformer and are selected through a closed Kind
// enum. Each call is a single attempt; providers return errors instead of
// silently degrading, and the caller decides whether a failed transformation
// falls back to the untransformed text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/book-expert/pdf2audio/internal/config"
)

// Kind identifies an LLM provider.
type Kind string

// Supported provider kinds.
const (
	KindOpenAI Kind = "openai"
	KindGemini Kind = "gemini"
)

// Environment variables holding provider credentials.
const (
	openAIKeyEnv = "OPENAI_API_KEY"
	geminiKeyEnv = "GEMINI_API_KEY"
)

// Static errors for provider construction and calls.
var (
	// ErrUnsupportedProvider indicates an unknown provider kind.
	ErrUnsupportedProvider = errors.New("unsupported llm provider")
	// ErrMissingAPIKey indicates the provider credential is not set.
	ErrMissingAPIKey = errors.New("missing api key")
	// ErrEmptyResponse indicates the provider returned no usable content.
	ErrEmptyResponse = errors.New("empty response from llm provider")
)

// TextTransformer is the capability surface of an LLM provider. Language is
// an optional BCP 47 style code; targetWords of zero means no length target.
type TextTransformer interface {
	// CleanText rewrites extracted text for narration, fixing artifacts
	// without changing the wording.
	CleanText(ctx context.Context, text string) (string, error)
	// ApplySSML adds SSML markup to improve prosody.
	ApplySSML(ctx context.Context, text string) (string, error)
	// SummarizeText produces an audiobook-style summary of text.
	SummarizeText(
		ctx context.Context, text, language string, targetWords int,
	) (string, error)
	// MergeSummaries combines per-chunk summaries into one narrative.
	MergeSummaries(
		ctx context.Context, text, language string, targetWords int,
	) (string, error)
	// ExpandSummary lengthens a too-short summary, optionally grounded on
	// source text for fidelity.
	ExpandSummary(
		ctx context.Context, summary, source, language string, targetWords int,
	) (string, error)
}

// ParseKind converts a provider name into a Kind.
func ParseKind(name string) (Kind, error) {
	switch Kind(strings.ToLower(name)) {
	case KindOpenAI:
		return KindOpenAI, nil
	case KindGemini:
		return KindGemini, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
	}
}

// New creates the provider for kind using the given LLM configuration. The
// credential environment variable is checked here so a missing key fails
// before any document work starts.
func New(kind Kind, cfg config.LLMConfig) (TextTransformer, error) {
	switch kind {
	case KindOpenAI:
		apiKey := os.Getenv(openAIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("%w: %s not set", ErrMissingAPIKey, openAIKeyEnv)
		}

		return newOpenAI(apiKey, cfg), nil
	case KindGemini:
		apiKey := os.Getenv(geminiKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("%w: %s not set", ErrMissingAPIKey, geminiKeyEnv)
		}

		return newGemini(apiKey, cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, kind)
	}
}

// summaryPrompt builds the per-chunk summarization prompt.
func summaryPrompt(base, language string, targetWords int) string {
	prompt := base

	if language != "" {
		prompt += "\nWrite the summary in " + language + "."
	}

	if targetWords > 0 {
		prompt += fmt.Sprintf("\nTarget length: at least %d words.", targetWords)
	}

	return prompt
}

// mergePrompt builds the summary-merge prompt.
func mergePrompt(base, language string, targetWords int) string {
	prompt := base

	if language != "" {
		prompt += "\nWrite the final summary in " + language + "."
	}

	if targetWords > 0 {
		prompt += fmt.Sprintf(
			"\nDo not shorten; target overall length >= %d words.",
			targetWords,
		)
	}

	return prompt
}

// expandPrompt builds the summary-expansion prompt. The source text, when
// present, anchors the expansion so no new facts are invented.
func expandPrompt(summary, source, language string, targetWords int) string {
	targetNote := "Expand with more detail while staying faithful to the source."
	if targetWords > 0 {
		targetNote = fmt.Sprintf(
			"Expand to at least %d words while staying faithful to the source.",
			targetWords,
		)
	}

	languageNote := ""
	if language != "" {
		languageNote = " Write in " + language + "."
	}

	prompt := "The following summary is too short. " + targetNote + languageNote +
		"\n\nSummary to expand:\n" + summary

	if source != "" {
		prompt += "\n\nSource points (for fidelity):\n" + source
	}

	return prompt
}
