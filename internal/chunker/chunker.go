// Package chunker splits document text into bounded-size pieces that respect
// linguistic boundaries.
//
// Splitting prefers the largest unit that fits: paragraphs are packed first,
// oversized paragraphs fall back to sentences, oversized sentences fall back
// to words, and only a single word longer than the limit is ever force-split
// across chunk boundaries. Both entry points are deterministic pure functions
// of (text, maxLength), so they are independently testable.
package chunker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Separators inserted between packed units.
const (
	paragraphSeparator = "\n\n"
	sentenceSeparator  = " "
	wordSeparator      = " "
)

// Strategy selects the splitting algorithm for a run.
type Strategy string

// Known chunking strategies.
const (
	// StrategyParagraph packs paragraphs first and is the default.
	StrategyParagraph Strategy = "paragraph"
	// StrategySentence packs sentences and words only.
	StrategySentence Strategy = "sentence"
)

// Static errors.
var (
	// ErrUnknownStrategy is returned for a strategy outside the known set.
	ErrUnknownStrategy = errors.New("unknown chunk strategy")
	// ErrMaxLengthTooSmall is returned when maxLength is below one.
	ErrMaxLengthTooSmall = errors.New("max length must be at least 1")
)

// paragraphBoundary matches one or more newline characters surrounding only
// whitespace, i.e. a blank-line paragraph break.
var paragraphBoundary = regexp.MustCompile(`\n\s*\n`)

// sentenceTerminatorNormalizer maps '!' and '?' to '.' so a single split
// character covers all sentence terminators.
var sentenceTerminatorNormalizer = strings.NewReplacer("!", ".", "?", ".")

// ParseStrategy converts a strategy name into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(strings.ToLower(name)) {
	case StrategyParagraph:
		return StrategyParagraph, nil
	case StrategySentence:
		return StrategySentence, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Chunk dispatches to the splitter selected by strategy.
func Chunk(text string, strategy Strategy, maxLength int) ([]string, error) {
	if maxLength < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrMaxLengthTooSmall, maxLength)
	}

	switch strategy {
	case StrategyParagraph:
		return ChunkByParagraph(text, maxLength), nil
	case StrategySentence:
		return ChunkBySentenceWord(text, maxLength), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// ChunkByParagraph splits text on blank-line boundaries and greedily packs
// paragraphs into chunks of at most maxLength characters, joining consecutive
// paragraphs with a double newline.
//
// A paragraph that alone exceeds maxLength is split by ChunkBySentenceWord;
// all of its sub-chunks except the last are flushed immediately, and the last
// stays open so subsequent paragraphs can pack onto it. Inputs that already
// fit are returned unchanged as a single chunk.
func ChunkByParagraph(text string, maxLength int) []string {
	if len(text) <= maxLength {
		return []string{text}
	}

	var chunks []string

	current := ""

	for _, paragraph := range paragraphBoundary.Split(text, -1) {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		packed := join(current, paragraph, paragraphSeparator)
		if len(packed) <= maxLength {
			current = packed

			continue
		}

		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}

		if len(paragraph) <= maxLength {
			current = paragraph

			continue
		}

		// Oversized paragraph: fall back to sentence/word splitting and
		// keep the trailing sub-chunk open for further packing.
		subChunks := ChunkBySentenceWord(paragraph, maxLength)
		if len(subChunks) == 0 {
			continue
		}

		chunks = append(chunks, subChunks[:len(subChunks)-1]...)
		current = subChunks[len(subChunks)-1]
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// ChunkBySentenceWord normalizes '!' and '?' to '.', splits on '.', and
// greedily packs sentences (with their trailing period restored) into chunks
// of at most maxLength characters.
//
// A sentence that alone exceeds maxLength is split on whitespace into words
// and packed greedily; a single word longer than maxLength is force-split at
// the character boundary. Every returned chunk is non-empty after trimming.
func ChunkBySentenceWord(text string, maxLength int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	if len(trimmed) <= maxLength {
		return []string{trimmed}
	}

	var chunks []string

	current := ""

	normalized := sentenceTerminatorNormalizer.Replace(trimmed)
	for _, sentence := range strings.Split(normalized, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		sentence += "."

		packed := join(current, sentence, sentenceSeparator)
		if len(packed) <= maxLength {
			current = packed

			continue
		}

		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}

		if len(sentence) <= maxLength {
			current = sentence

			continue
		}

		chunks, current = packWords(chunks, sentence, maxLength)
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// packWords packs the words of an oversized sentence greedily, force-splitting
// any single word longer than maxLength. It returns the updated chunk list and
// the still-open trailing chunk.
func packWords(chunks []string, sentence string, maxLength int) ([]string, string) {
	current := ""

	for _, word := range strings.Fields(sentence) {
		packed := join(current, word, wordSeparator)
		if len(packed) <= maxLength {
			current = packed

			continue
		}

		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}

		// Force-split a word that can never fit on its own. The pieces
		// concatenate back to the original word.
		for len(word) > maxLength {
			chunks = append(chunks, word[:maxLength])
			word = word[maxLength:]
		}

		current = word
	}

	return chunks, current
}

// join appends unit to current with the separator, or returns unit alone when
// current is empty.
func join(current, unit, separator string) string {
	if current == "" {
		return unit
	}

	return current + separator + unit
}
