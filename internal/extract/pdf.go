// Package extract reads plain text out of PDF documents.
//
// Extraction works page by page; a page that fails to decode is skipped and
// counted rather than aborting the document, since many real PDFs contain a
// handful of malformed pages. Only a document that yields no text at all is
// an error, which typically means a scanned or image-only PDF.
package extract

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Static errors for extraction.
var (
	// ErrPDFNotFound indicates the input file does not exist.
	ErrPDFNotFound = errors.New("pdf file not found")
	// ErrNoText indicates the document produced no extractable text.
	ErrNoText = errors.New("no text could be extracted from pdf")
)

// Result holds the extracted document text and page accounting.
type Result struct {
	// Text is the concatenated plain text of all readable pages.
	Text string
	// TotalPages is the page count reported by the document.
	TotalPages int
	// SkippedPages counts pages that failed to decode and were dropped.
	SkippedPages int
}

// PDF extracts text from PDF files.
type PDF struct{}

// NewPDF creates a PDF extractor.
func NewPDF() *PDF {
	return &PDF{}
}

// Extract reads all pages of the PDF at path and returns their plain text.
// Pages that fail to decode are skipped; an entirely empty result is an
// error.
func (p *PDF) Extract(path string) (*Result, error) {
	_, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return nil, fmt.Errorf("%w: %s", ErrPDFNotFound, path)
		}

		return nil, fmt.Errorf("failed to stat pdf %s: %w", path, statErr)
	}

	file, reader, openErr := pdf.Open(path)
	if openErr != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, openErr)
	}

	defer func() {
		_ = file.Close()
	}()

	var builder strings.Builder

	totalPages := reader.NumPage()
	skipped := 0

	for pageNumber := 1; pageNumber <= totalPages; pageNumber++ {
		page := reader.Page(pageNumber)
		if page.V.IsNull() {
			skipped++

			continue
		}

		text, textErr := page.GetPlainText(nil)
		if textErr != nil {
			skipped++

			continue
		}

		builder.WriteString(text)
		builder.WriteString("\n")
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoText, path)
	}

	return &Result{
		Text:         text,
		TotalPages:   totalPages,
		SkippedPages: skipped,
	}, nil
}
