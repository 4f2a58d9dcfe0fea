package analyzer

import "testing"

func TestTokenizeRemovesStopwordsAndShortWords(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("The revenue of the company is growing")

	for _, tk := range tokens {
		if tk == "the" || tk == "of" || tk == "is" {
			t.Errorf("stopword %q survived tokenization", tk)
		}
	}
	found := false
	for _, tk := range tokens {
		if tk == "revenue" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'revenue' in tokens, got %v", tokens)
	}
}

func TestCountTokensEmpty(t *testing.T) {
	tok := NewTokenizer()
	if n := tok.CountTokens(""); n != 0 {
		t.Errorf("expected 0 tokens for empty text, got %d", n)
	}
}

func TestCountTokensScalesWithWords(t *testing.T) {
	tok := NewTokenizer()
	short := tok.CountTokens("one two three")
	long := tok.CountTokens("one two three four five six seven eight")
	if long <= short {
		t.Errorf("expected longer text to count more tokens: %d <= %d", long, short)
	}
}

func TestKeywordScoreRanksMatches(t *testing.T) {
	tok := NewTokenizer()
	text := "first line about weather\nsecond line about revenue and profit\nrevenue numbers here\nnothing relevant"

	lines := tok.KeywordScore(text, "revenue profit", 2)

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Score < lines[1].Score {
		t.Errorf("lines not sorted by score: %v", lines)
	}
	if lines[0].Line != "second line about revenue and profit" {
		t.Errorf("unexpected top line: %q", lines[0].Line)
	}
}

func TestKeywordScoreNoMatches(t *testing.T) {
	tok := NewTokenizer()
	if lines := tok.KeywordScore("alpha beta", "gamma", 3); len(lines) != 0 {
		t.Errorf("expected no matches, got %v", lines)
	}
}
