// Package extract_test tests PDF text extraction error handling.
package extract_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/pdf2audio/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_MissingFile(t *testing.T) {
	t.Parallel()

	extractor := extract.NewPDF()

	result, err := extractor.Extract(filepath.Join(t.TempDir(), "absent.pdf"))
	require.ErrorIs(t, err, extract.ErrPDFNotFound)
	assert.Nil(t, result)
}

func TestExtract_NotAPDF(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not a pdf"), 0o600))

	extractor := extract.NewPDF()

	result, err := extractor.Extract(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, extract.ErrPDFNotFound)
	assert.Nil(t, result)
}
