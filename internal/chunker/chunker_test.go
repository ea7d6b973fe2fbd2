package chunker

import (
	"strings"
	"testing"
)

// reconstruct joins chunk texts, stripping each chunk's overlap prefix, and
// must reproduce the original input exactly.
func reconstruct(t *testing.T, chunks []Chunk, overlapTokens int) string {
	t.Helper()
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c.Text)
			continue
		}
		seed := tail(chunks[i-1].Text, overlapTokens*charsPerToken)
		if !strings.HasPrefix(c.Text, seed) {
			t.Fatalf("chunk %d does not start with previous chunk's overlap", i)
		}
		b.WriteString(c.Text[len(seed):])
	}
	return b.String()
}

func TestSplitEmptyInput(t *testing.T) {
	if got := Split("", 800, 50); got != nil {
		t.Errorf("Split(empty) = %d chunks, want 0", len(got))
	}
	if got := Split("   \n\n  ", 800, 50); got != nil {
		t.Errorf("Split(blank) = %d chunks, want 0", len(got))
	}
}

func TestSplitSingleChunkUnderBudget(t *testing.T) {
	// 3,000 characters with chunk budget 800 tokens (~3,200 chars) must fit
	// in exactly one chunk with no overlap applied.
	text := strings.Repeat("seven chars. ", 240)[:3000]
	chunks := Split(text, 800, 50)

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != text {
		t.Error("single chunk must carry the input verbatim")
	}
	if chunks[0].TokenCount != 750 {
		t.Errorf("TokenCount = %d, want 750", chunks[0].TokenCount)
	}
	if chunks[0].Index != 0 {
		t.Errorf("Index = %d, want 0", chunks[0].Index)
	}
}

func TestSplitParagraphDocument(t *testing.T) {
	para := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 10) // ~460 chars
	text := strings.TrimRight(strings.Repeat(para+"\n\n", 22), "\n")           // ~10,000 chars

	const target, overlap = 800, 50
	chunks := Split(text, target, overlap)

	if len(chunks) < 3 {
		t.Fatalf("got %d chunks, want at least 3", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has Index %d", i, c.Index)
		}
		if c.Text == "" {
			t.Errorf("chunk %d is empty", i)
		}
		if c.TokenCount > target {
			t.Errorf("chunk %d TokenCount %d exceeds target %d", i, c.TokenCount, target)
		}
	}
	if got := reconstruct(t, chunks, overlap); got != text {
		t.Error("reconstructed text differs from input")
	}
}

func TestSplitOverlapProperty(t *testing.T) {
	text := strings.Repeat("Sentence number one here. ", 400) // ~10,400 chars
	const target, overlap = 200, 25
	chunks := Split(text, target, overlap)

	if len(chunks) < 2 {
		t.Fatalf("need multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		seed := tail(chunks[i-1].Text, overlap*charsPerToken)
		if !strings.HasPrefix(chunks[i].Text, seed) {
			t.Errorf("chunk %d missing overlap prefix from chunk %d", i, i-1)
		}
	}
}

func TestSplitFallbackGranularity(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no paragraph breaks", strings.Repeat("One short sentence here. ", 500)},
		{"one giant sentence", "start " + strings.Repeat("word ", 3000) + "end"},
		{"no boundaries at all", strings.Repeat("x", 20000)},
	}
	const target, overlap = 400, 40
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Split(tt.text, target, overlap)
			if len(chunks) < 2 {
				t.Fatalf("got %d chunks, want several", len(chunks))
			}
			for i, c := range chunks {
				if c.TokenCount > target {
					t.Errorf("chunk %d TokenCount %d exceeds target %d", i, c.TokenCount, target)
				}
				if c.Text == "" {
					t.Errorf("chunk %d is empty", i)
				}
			}
			if got := reconstruct(t, chunks, overlap); got != tt.text {
				t.Error("reconstructed text differs from input")
			}
		})
	}
}

func TestSplitMultiByteSafety(t *testing.T) {
	text := strings.Repeat("héllo wörld über alles ", 600)
	chunks := Split(text, 100, 10)

	for i, c := range chunks {
		for _, r := range c.Text {
			if r == '�' {
				t.Fatalf("chunk %d contains a broken rune", i)
			}
		}
	}
	if got := reconstruct(t, chunks, 10); got != text {
		t.Error("reconstructed text differs from input")
	}
}

func TestSplitZeroOverlap(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta. ", 300)
	chunks := Split(text, 100, 0)

	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	if b.String() != text {
		t.Error("with zero overlap, plain concatenation must reproduce the input")
	}
}

func TestSplitDefaultsApplied(t *testing.T) {
	text := strings.Repeat("some words here. ", 20)
	chunks := Split(text, 0, -1)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1 under default budget", len(chunks))
	}
}
