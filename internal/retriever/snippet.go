package retriever

import (
	"strings"
	"unicode/utf8"
)

// SnippetMaxLen is the default evidentiary excerpt length.
const SnippetMaxLen = 200

const ellipsis = "..."

// Snippet truncates text to at most maxLen characters without splitting a
// word. Preference order: cut at a sentence-ending period past 70% of
// maxLen; otherwise cut at a word boundary and append an ellipsis;
// otherwise hard-cut on a rune boundary and append an ellipsis.
func Snippet(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = SnippetMaxLen
	}
	text = strings.TrimSpace(text)
	if len(text) <= maxLen {
		return text
	}

	cut := maxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	head := text[:cut]

	// A sentence end close enough to the budget reads best and needs no
	// ellipsis.
	minSentence := maxLen * 7 / 10
	if idx := strings.LastIndex(head, ". "); idx+1 >= minSentence {
		return head[:idx+1]
	}
	if strings.HasSuffix(head, ".") {
		return head
	}

	if idx := strings.LastIndexByte(head, ' '); idx > 0 {
		return strings.TrimRight(head[:idx], " ") + ellipsis
	}

	return head + ellipsis
}
