// Package chunker_test tests the paragraph and sentence/word splitters.
package chunker_test

import (
	"strings"
	"testing"

	"github.com/book-expert/pdf2audio/internal/chunker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stripForComparison removes all whitespace so chunk round-trips can be
// compared on non-whitespace content only, ignoring inserted separators.
func stripForComparison(text string) string {
	return strings.Join(strings.Fields(text), "")
}

func TestChunkByParagraph_IdentityOnSmallInput(t *testing.T) {
	t.Parallel()

	input := "A short paragraph.\n\nAnother one."

	chunks := chunker.ChunkByParagraph(input, len(input))

	require.Len(t, chunks, 1)
	assert.Equal(t, input, chunks[0])
}

func TestChunkByParagraph_PacksParagraphsGreedily(t *testing.T) {
	t.Parallel()

	input := "First paragraph.\n\nSecond paragraph.\n\nThird paragraph."

	// First two paragraphs fit together; the third forces a new chunk.
	chunks := chunker.ChunkByParagraph(input, 36)

	require.Len(t, chunks, 2)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", chunks[0])
	assert.Equal(t, "Third paragraph.", chunks[1])
}

func TestChunkByParagraph_OversizedParagraphFallsBackToSentences(t *testing.T) {
	t.Parallel()

	oversized := "One sentence here. Another sentence here. A third sentence here."
	input := oversized + "\n\nShort."

	chunks := chunker.ChunkByParagraph(input, 40)

	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 40)
	}

	// The trailing sub-chunk of the oversized paragraph stays open, so the
	// short paragraph packs onto it instead of starting a tiny chunk.
	last := chunks[len(chunks)-1]
	assert.Contains(t, last, "Short.")
	assert.Contains(t, last, "third sentence")
}

func TestChunkByParagraph_LengthBound(t *testing.T) {
	t.Parallel()

	input := strings.Repeat("Some words in a sentence. ", 50) +
		"\n\n" + strings.Repeat("More words in another paragraph. ", 50)

	for _, maxLength := range []int{10, 25, 80, 200, 1000} {
		chunks := chunker.ChunkByParagraph(input, maxLength)

		require.NotEmpty(t, chunks)

		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), maxLength,
				"maxLength %d produced an oversized chunk", maxLength)
			assert.NotEmpty(t, strings.TrimSpace(chunk))
		}
	}
}

func TestChunkByParagraph_RoundTripPreservesContent(t *testing.T) {
	t.Parallel()

	input := "Alpha beta gamma.\n\nDelta epsilon zeta. Eta theta iota.\n\nKappa."

	chunks := chunker.ChunkByParagraph(input, 24)

	rejoined := strings.Join(chunks, " ")
	assert.Equal(t, stripForComparison(input), stripForComparison(rejoined))
}

func TestChunkBySentenceWord_SentencePerChunk(t *testing.T) {
	t.Parallel()

	// Each sentence alone fits; none can be combined.
	chunks := chunker.ChunkBySentenceWord("A. B. C.", 4)

	assert.Equal(t, []string{"A.", "B.", "C."}, chunks)
}

func TestChunkBySentenceWord_ExactLengthNoTerminators(t *testing.T) {
	t.Parallel()

	input := strings.Repeat("x", 64)

	chunks := chunker.ChunkBySentenceWord(input, 64)

	require.Len(t, chunks, 1)
	assert.Equal(t, input, chunks[0])
}

func TestChunkBySentenceWord_NormalizesTerminators(t *testing.T) {
	t.Parallel()

	chunks := chunker.ChunkBySentenceWord("Stop! Really? Yes.", 7)

	assert.Equal(t, []string{"Stop.", "Really.", "Yes."}, chunks)
}

func TestChunkBySentenceWord_OversizedSentenceSplitsOnWords(t *testing.T) {
	t.Parallel()

	input := "alpha beta gamma delta epsilon"

	chunks := chunker.ChunkBySentenceWord(input, 12)

	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 12)
		// Word boundaries are respected: no chunk starts or ends
		// mid-word because every word here fits on its own.
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}

	rejoined := strings.Join(chunks, " ")
	assert.Equal(t, stripForComparison(input+"."), stripForComparison(rejoined))
}

func TestChunkBySentenceWord_ForceSplitsOversizedWord(t *testing.T) {
	t.Parallel()

	word := "supercalifragilisticexpialidocious"

	chunks := chunker.ChunkBySentenceWord(word, 10)

	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 10)
	}

	// The pieces concatenate back to the original word (plus the restored
	// sentence terminator on the final piece).
	assert.Equal(t, word+".", strings.Join(chunks, ""))
}

func TestChunkBySentenceWord_NoSplitWithoutOversizedWord(t *testing.T) {
	t.Parallel()

	input := "one two three four five six seven eight nine ten"

	chunks := chunker.ChunkBySentenceWord(input, 9)

	for _, chunk := range chunks {
		for _, word := range strings.Fields(strings.TrimSuffix(chunk, ".")) {
			assert.Contains(t, input, word,
				"chunking split a word that fits on its own")
		}
	}
}

func TestChunkBySentenceWord_EmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, chunker.ChunkBySentenceWord("", 10))
	assert.Empty(t, chunker.ChunkBySentenceWord("   \n\t  ", 10))
}

func TestChunk_StrategyDispatch(t *testing.T) {
	t.Parallel()

	input := "First paragraph.\n\nSecond paragraph."

	paragraphChunks, err := chunker.Chunk(input, chunker.StrategyParagraph, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{input}, paragraphChunks)

	sentenceChunks, err := chunker.Chunk(input, chunker.StrategySentence, 100)
	require.NoError(t, err)
	assert.NotEmpty(t, sentenceChunks)
}

func TestChunk_UnknownStrategy(t *testing.T) {
	t.Parallel()

	_, err := chunker.Chunk("text", chunker.Strategy("haiku"), 100)

	require.ErrorIs(t, err, chunker.ErrUnknownStrategy)
}

func TestChunk_MaxLengthBelowOne(t *testing.T) {
	t.Parallel()

	_, err := chunker.Chunk("text", chunker.StrategyParagraph, 0)

	require.ErrorIs(t, err, chunker.ErrMaxLengthTooSmall)
}
