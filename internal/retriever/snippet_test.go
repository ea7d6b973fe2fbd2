package retriever

import (
	"strings"
	"testing"
	"unicode"
)

func TestSnippetShortTextPassesThrough(t *testing.T) {
	text := "A short sentence."
	if got := Snippet(text, 200); got != text {
		t.Errorf("Snippet = %q, want unchanged input", got)
	}
}

func TestSnippetSentenceBoundary(t *testing.T) {
	// A period lands past 70% of the budget, so the cut happens there with
	// no ellipsis.
	text := strings.Repeat("word ", 32) + "end of sentence. " + strings.Repeat("more text here ", 20)
	got := Snippet(text, 200)

	if !strings.HasSuffix(got, ".") {
		t.Errorf("snippet %q must end with the sentence period", got)
	}
	if len(got) > 200 {
		t.Errorf("snippet length %d exceeds 200", len(got))
	}
}

func TestSnippetWordBoundary(t *testing.T) {
	// No period anywhere: fall back to a word boundary plus ellipsis.
	text := strings.Repeat("lengthy unpunctuated prose rolls onward ", 20)
	got := Snippet(text, 200)

	if !strings.HasSuffix(got, ellipsis) {
		t.Errorf("snippet %q must end with an ellipsis", got)
	}
	trimmed := strings.TrimSuffix(got, ellipsis)
	if strings.HasSuffix(trimmed, " ") {
		t.Error("snippet must not end with trailing space before the ellipsis")
	}
	// The cut text must align with a word boundary in the original.
	if !strings.Contains(text, trimmed+" ") {
		t.Errorf("snippet %q splits a word", trimmed)
	}
}

func TestSnippetHardCut(t *testing.T) {
	text := strings.Repeat("x", 500)
	got := Snippet(text, 200)

	if !strings.HasSuffix(got, ellipsis) {
		t.Errorf("snippet %q must end with an ellipsis", got)
	}
	if len(got) > 200+len(ellipsis) {
		t.Errorf("snippet length %d exceeds budget", len(got))
	}
}

func TestSnippetNeverSplitsWords(t *testing.T) {
	// 500-character chunk truncated to 200 must end at a period or an
	// ellipsis, never mid-word.
	text := strings.Repeat("The committee deliberated extensively regarding the proposal ", 9)[:500]
	got := Snippet(text, 200)

	switch {
	case strings.HasSuffix(got, "."):
	case strings.HasSuffix(got, ellipsis):
		core := strings.TrimSuffix(got, ellipsis)
		last := rune(core[len(core)-1])
		next := rune(text[len(core)])
		if !unicode.IsSpace(next) && unicode.IsLetter(last) && unicode.IsLetter(next) {
			t.Errorf("snippet cut mid-word at %q|%q", string(last), string(next))
		}
	default:
		t.Errorf("snippet %q ends with neither period nor ellipsis", got)
	}
}

func TestSnippetMultiByteSafety(t *testing.T) {
	text := strings.Repeat("café über naïve ", 50)
	got := Snippet(text, 100)
	for _, r := range got {
		if r == '�' {
			t.Fatal("snippet contains a broken rune")
		}
	}
}
