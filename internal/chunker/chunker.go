// Package chunker splits document content into overlapping, semantically
// bounded chunks sized by an approximate token budget.
//
// Splitting prefers paragraph boundaries, falls back to sentence boundaries
// when a single paragraph exceeds the budget, then to word boundaries, and
// finally to fixed-width rune slices. The fallback chain guarantees bounded
// chunk sizes and termination for any input, including text with no
// structure at all.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// charsPerToken is the approximation used throughout: 1 token ~ 4 characters.
const charsPerToken = 4

// Default budgets applied when a caller passes non-positive values.
const (
	DefaultTargetTokens  = 800
	DefaultOverlapTokens = 50
)

// Chunk is one bounded slice of a document's content.
type Chunk struct {
	// Index is the zero-based position of the chunk within the document,
	// assigned in strictly increasing emission order.
	Index int

	// Text is the chunk content. For every chunk after the first it begins
	// with the trailing overlap of the previous chunk.
	Text string

	// TokenCount is the approximate token count of Text.
	TokenCount int
}

// Split chunks text into pieces of at most targetTokens approximate tokens,
// with adjacent chunks sharing overlapTokens worth of trailing context.
//
// Blank input produces no chunks. Input that fits the budget produces
// exactly one chunk with no overlap applied. Concatenating all chunk texts,
// skipping each chunk's overlap prefix, reproduces the input exactly.
func Split(text string, targetTokens, overlapTokens int) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if targetTokens <= 0 {
		targetTokens = DefaultTargetTokens
	}
	if overlapTokens < 0 {
		overlapTokens = DefaultOverlapTokens
	}
	// Overlap must leave room for new content in every chunk.
	if overlapTokens >= targetTokens {
		overlapTokens = targetTokens / 2
	}

	targetChars := targetTokens * charsPerToken
	overlapChars := overlapTokens * charsPerToken

	// Each unit must fit after an overlap seed without blowing the budget.
	unitBudget := targetChars - overlapChars
	if unitBudget < 1 {
		unitBudget = 1
	}

	var chunks []Chunk
	var buf strings.Builder

	emit := func() {
		t := buf.String()
		chunks = append(chunks, Chunk{
			Index:      len(chunks),
			Text:       t,
			TokenCount: len(t) / charsPerToken,
		})
		buf.Reset()
		if overlapChars > 0 {
			buf.WriteString(tail(t, overlapChars))
		}
	}

	for _, u := range units(text, unitBudget) {
		if buf.Len() > 0 && buf.Len()+len(u) > targetChars {
			emit()
		}
		buf.WriteString(u)
	}
	if buf.Len() > 0 {
		emit()
	}

	return chunks
}

// units partitions s into ordered pieces, each at most budget bytes, that
// concatenate back to s exactly. Separators stay attached to the piece they
// terminate so no characters are lost.
func units(s string, budget int) []string {
	if len(s) <= budget {
		return []string{s}
	}
	for _, split := range []func(string) []string{splitParagraphs, splitSentences, splitWords} {
		if parts := split(s); len(parts) > 1 {
			var out []string
			for _, p := range parts {
				out = append(out, units(p, budget)...)
			}
			return out
		}
	}
	return hardSplit(s, budget)
}

// splitParagraphs splits after every blank-line run. The newline run is kept
// on the preceding piece.
func splitParagraphs(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); {
		if s[i] == '\n' && i+1 < len(s) && s[i+1] == '\n' {
			j := i
			for j < len(s) && s[j] == '\n' {
				j++
			}
			parts = append(parts, s[start:j])
			start, i = j, j
			continue
		}
		i++
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

// splitSentences splits after ". ", "! " and "? ", keeping the terminator
// and trailing space on the preceding piece.
func splitSentences(s string) []string {
	var parts []string
	start := 0
	for i := 0; i+1 < len(s); i++ {
		c := s[i]
		if (c == '.' || c == '!' || c == '?') && s[i+1] == ' ' {
			parts = append(parts, s[start:i+2])
			start = i + 2
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

// splitWords splits after every whitespace run.
func splitWords(s string) []string {
	isSpace := func(c byte) bool {
		return c == ' ' || c == '\t' || c == '\n' || c == '\r'
	}
	var parts []string
	start := 0
	for i := 0; i < len(s); {
		if isSpace(s[i]) {
			j := i
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			parts = append(parts, s[start:j])
			start, i = j, j
			continue
		}
		i++
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

// hardSplit cuts s into pieces of at most budget bytes on rune boundaries.
// Last-resort splitter for inputs with no whitespace at all.
func hardSplit(s string, budget int) []string {
	var parts []string
	start := 0
	for start < len(s) {
		end := start + budget
		if end >= len(s) {
			parts = append(parts, s[start:])
			break
		}
		// Back up to a rune boundary so multi-byte characters stay intact.
		for end > start && !utf8.RuneStart(s[end]) {
			end--
		}
		if end == start {
			end = start + budget // degenerate: invalid UTF-8, cut anyway
		}
		parts = append(parts, s[start:end])
		start = end
	}
	return parts
}

// tail returns the trailing n bytes of s, extended backward to a rune
// boundary.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start > 0 && !utf8.RuneStart(s[start]) {
		start--
	}
	return s[start:]
}
