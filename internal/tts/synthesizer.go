// Package tts synthesizes narration audio through pluggable providers and
// merges the per-chunk results into a single output file.
package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/book-expert/logger"

	"github.com/book-expert/pdf2audio/internal/config"
)

// Kind identifies a TTS provider.
type Kind string

// Supported provider kinds.
const (
	KindGoogleTranslate Kind = "gtts"
	KindOpenAI          Kind = "openai"
	KindAWS             Kind = "aws"
)

// Static errors for provider construction.
var (
	// ErrUnsupportedProvider indicates an unknown provider kind.
	ErrUnsupportedProvider = errors.New("unsupported tts provider")
	// ErrMissingCredential indicates a required credential is not set.
	ErrMissingCredential = errors.New("missing tts credential")
)

// Synthesizer converts one text chunk into audio. Implementations declare
// their input-size and capability boundaries so the dispatcher can re-chunk
// and post-process accordingly.
type Synthesizer interface {
	// Synthesize returns MP3 audio for text in the given language.
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
	// MaxInputChars is the largest input the provider accepts, which may
	// shrink when SSML markup is carried.
	MaxInputChars(ssml bool) int
	// SupportsSSML reports whether the provider interprets SSML input.
	SupportsSSML() bool
	// AppliesSpeakingRate reports whether the provider applies the
	// configured speaking rate natively during synthesis.
	AppliesSpeakingRate() bool
}

// ParseKind converts a provider name into a Kind.
func ParseKind(name string) (Kind, error) {
	switch Kind(strings.ToLower(name)) {
	case KindGoogleTranslate:
		return KindGoogleTranslate, nil
	case KindOpenAI:
		return KindOpenAI, nil
	case KindAWS:
		return KindAWS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
	}
}

// New creates the provider for kind. Credentials are checked here so a
// missing key fails before any document work starts.
func New(
	ctx context.Context,
	kind Kind,
	cfg config.TTSConfig,
	log *logger.Logger,
) (Synthesizer, error) {
	switch kind {
	case KindGoogleTranslate:
		return newGoogleTranslate(cfg), nil
	case KindOpenAI:
		return newOpenAISpeech(cfg)
	case KindAWS:
		return newPolly(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, kind)
	}
}
