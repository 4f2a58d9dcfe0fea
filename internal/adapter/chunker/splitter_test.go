package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/analyzer"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
)

func TestNewSplitterValidation(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -5, 0},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 20},
		{"negative overlap", 10, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSplitter(StrategyFixed, tc.size, tc.overlap, nil)
			if !errors.Is(err, domain.ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestTokenStrategyRequiresEstimator(t *testing.T) {
	_, err := NewSplitter(StrategyToken, 100, 10, nil)
	if !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestFixedEmptyInput(t *testing.T) {
	s, err := NewSplitter(StrategyFixed, 10, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	chunks, err := s.Chunk("")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for empty input, got %d", len(chunks))
	}
}

func TestFixedShortInput(t *testing.T) {
	s, _ := NewSplitter(StrategyFixed, 100, 10, nil)
	chunks, err := s.Chunk("short text")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Errorf("expected single chunk equal to input, got %v", chunks)
	}
}

func TestFixedWindowMath(t *testing.T) {
	s, _ := NewSplitter(StrategyFixed, 5, 2, nil)
	chunks, err := s.Chunk("abcdefghij")
	if err != nil {
		t.Fatal(err)
	}

	for i, c := range chunks {
		if len([]rune(c)) > 5 {
			t.Errorf("chunk %d exceeds size: %q", i, c)
		}
		if c == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
	if chunks[0] != "abcde" {
		t.Errorf("first chunk = %q, want %q", chunks[0], "abcde")
	}
	if chunks[1] != "defgh" {
		t.Errorf("second chunk = %q, want %q", chunks[1], "defgh")
	}
}

// Concatenating fixed chunks after removing each chunk's leading overlap
// reproduces the original text.
func TestFixedReconstruction(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog, again and again, until the end."

	for _, cfg := range []struct{ size, overlap int }{
		{10, 0}, {10, 3}, {7, 6}, {25, 5}, {100, 0},
	} {
		s, err := NewSplitter(StrategyFixed, cfg.size, cfg.overlap, nil)
		if err != nil {
			t.Fatal(err)
		}
		chunks, err := s.Chunk(text)
		if err != nil {
			t.Fatal(err)
		}

		var rebuilt strings.Builder
		for i, c := range chunks {
			runes := []rune(c)
			if i > 0 {
				runes = runes[cfg.overlap:]
			}
			rebuilt.WriteString(string(runes))
		}
		if rebuilt.String() != text {
			t.Errorf("size=%d overlap=%d: reconstruction mismatch:\n got %q\nwant %q",
				cfg.size, cfg.overlap, rebuilt.String(), text)
		}
	}
}

func TestRecursiveRespectsSize(t *testing.T) {
	s, _ := NewSplitter(StrategyRecursive, 40, 10, nil)

	text := "First paragraph with some words.\n\nSecond paragraph. It has two sentences here.\n\nThird one is short."
	chunks, err := s.Chunk(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 40 {
			t.Errorf("chunk %d exceeds size 40: %q (%d runes)", i, c, len([]rune(c)))
		}
	}
}

func TestRecursivePrefersParagraphBoundaries(t *testing.T) {
	s, _ := NewSplitter(StrategyRecursive, 30, 0, nil)

	text := "Alpha paragraph here.\n\nBeta paragraph here."
	chunks, err := s.Chunk(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[1], "Beta") {
		t.Errorf("second chunk should start at paragraph boundary, got %q", chunks[1])
	}
}

func TestRecursiveCoversAllText(t *testing.T) {
	s, _ := NewSplitter(StrategyRecursive, 20, 5, nil)
	text := "one two three four five six seven eight nine ten eleven twelve"

	chunks, err := s.Chunk(text)
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(chunks, "")
	for _, word := range strings.Fields(text) {
		if !strings.Contains(joined, word) {
			t.Errorf("word %q lost during chunking", word)
		}
	}
}

func TestRecursiveSingleLongWord(t *testing.T) {
	s, _ := NewSplitter(StrategyRecursive, 8, 0, nil)
	chunks, err := s.Chunk("abcdefghijklmnopqrstuvwxyz")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(chunks, "") != "abcdefghijklmnopqrstuvwxyz" {
		t.Errorf("rune fallback lost text: %v", chunks)
	}
	for _, c := range chunks {
		if len([]rune(c)) > 8 {
			t.Errorf("chunk exceeds size: %q", c)
		}
	}
}

func TestTokenStrategyBoundsEstimate(t *testing.T) {
	tok := analyzer.NewTokenizer()
	s, err := NewSplitter(StrategyToken, 10, 2, tok)
	if err != nil {
		t.Fatal(err)
	}

	text := strings.Repeat("some words to count against the token budget here ", 10)
	chunks, err := s.Chunk(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := tok.CountTokens(c); n > 10 {
			t.Errorf("chunk %d estimated at %d tokens, budget 10: %q", i, n, c)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	if st, ok := ParseStrategy("fixed"); !ok || st != StrategyFixed {
		t.Errorf("ParseStrategy(fixed) = %v, %v", st, ok)
	}
	if st, ok := ParseStrategy(""); !ok || st != StrategyRecursive {
		t.Errorf("ParseStrategy(empty) = %v, %v", st, ok)
	}
	if _, ok := ParseStrategy("bogus"); ok {
		t.Error("ParseStrategy(bogus) should not be ok")
	}
}
