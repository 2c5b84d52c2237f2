// Package preclean strips recurring boilerplate from extracted document text
// before it reaches an LLM.
//
// Headers, footers, page numbers, and bare URLs inflate token usage and leak
// into synthesized audio, so they are removed with frequency- and
// pattern-based heuristics. Cleaning is a pure function of the input text and
// the configured thresholds; blank lines are preserved so downstream
// paragraph chunking keeps its boundaries.
package preclean

import (
	"regexp"
	"strings"
)

// Default thresholds.
const (
	// DefaultMinRepeats is the minimum number of occurrences before a short
	// line is treated as a repeating header or footer.
	DefaultMinRepeats = 3
	// DefaultMaxLineLength bounds the line length considered for frequency
	// stripping; longer repeated lines are assumed to be real content.
	DefaultMaxLineLength = 80
)

// Regex patterns for boilerplate lines.
const (
	pageNumberPattern = `(?i)^page\s+\d+(\s+of\s+\d+)?$`
	digitsOnlyPattern = `^\d+$`
	bareURLPattern    = `^https?://\S+$`
)

// Thresholds configures frequency-based line stripping.
type Thresholds struct {
	// MinRepeats is the minimum occurrence count for a line to be dropped.
	MinRepeats int
	// MaxLineLength is the maximum trimmed length of a line eligible for
	// frequency-based dropping.
	MaxLineLength int
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinRepeats:    DefaultMinRepeats,
		MaxLineLength: DefaultMaxLineLength,
	}
}

// Cleaner removes boilerplate lines from document text. Patterns are compiled
// once at construction.
type Cleaner struct {
	pageNumber *regexp.Regexp
	digitsOnly *regexp.Regexp
	bareURL    *regexp.Regexp
	thresholds Thresholds
}

// New creates a Cleaner with the given thresholds. Zero or negative threshold
// fields fall back to the defaults.
func New(thresholds Thresholds) *Cleaner {
	if thresholds.MinRepeats <= 0 {
		thresholds.MinRepeats = DefaultMinRepeats
	}

	if thresholds.MaxLineLength <= 0 {
		thresholds.MaxLineLength = DefaultMaxLineLength
	}

	return &Cleaner{
		pageNumber: regexp.MustCompile(pageNumberPattern),
		digitsOnly: regexp.MustCompile(digitsOnlyPattern),
		bareURL:    regexp.MustCompile(bareURLPattern),
		thresholds: thresholds,
	}
}

// Clean strips repeating short lines and pattern-matched boilerplate from
// text. Blank lines pass through unchanged to retain paragraph boundaries.
// Running Clean on its own output yields the same result.
func (c *Cleaner) Clean(text string) string {
	lines := strings.Split(text, "\n")

	frequencies := countLineFrequencies(lines)

	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			kept = append(kept, line)

			continue
		}

		if c.isBoilerplate(trimmed, frequencies[trimmed]) {
			continue
		}

		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

// isBoilerplate reports whether a trimmed, non-empty line should be dropped.
func (c *Cleaner) isBoilerplate(trimmed string, occurrences int) bool {
	if len(trimmed) <= c.thresholds.MaxLineLength &&
		occurrences >= c.thresholds.MinRepeats {
		return true
	}

	if c.pageNumber.MatchString(trimmed) {
		return true
	}

	if c.digitsOnly.MatchString(trimmed) {
		return true
	}

	return c.bareURL.MatchString(trimmed)
}

// countLineFrequencies counts occurrences of each trimmed, non-empty line.
func countLineFrequencies(lines []string) map[string]int {
	frequencies := make(map[string]int, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		frequencies[trimmed]++
	}

	return frequencies
}
