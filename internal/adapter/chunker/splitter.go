package chunker

import (
	"fmt"
	"strings"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
)

// Strategy selects how text is measured and split.
type Strategy string

const (
	// StrategyFixed slides a rune window of size advancing by size-overlap.
	StrategyFixed Strategy = "fixed"
	// StrategyRecursive splits at decreasing granularity (paragraph,
	// sentence, word, rune), merging small units up to size.
	StrategyRecursive Strategy = "recursive"
	// StrategyToken bounds chunks by estimated model-token count.
	StrategyToken Strategy = "token"
)

// ParseStrategy converts a config string into a Strategy.
func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(s) {
	case StrategyFixed, StrategyRecursive, StrategyToken:
		return Strategy(s), true
	case "":
		return StrategyRecursive, true
	}
	return StrategyRecursive, false
}

// TokenEstimator estimates the model-token count of a text.
type TokenEstimator interface {
	CountTokens(text string) int
}

// recursiveSeparators orders split granularity from coarse to fine. The
// empty separator means a fixed rune window as the final fallback.
var recursiveSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter chunks normalized text under a configured strategy.
type Splitter struct {
	strategy  Strategy
	size      int
	overlap   int
	estimator TokenEstimator
}

// NewSplitter validates the chunking parameters and returns a Splitter.
// size must be positive and overlap must satisfy 0 <= overlap < size.
func NewSplitter(strategy Strategy, size, overlap int, estimator TokenEstimator) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfiguration, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, size), got %d", domain.ErrInvalidConfiguration, overlap)
	}
	switch strategy {
	case StrategyFixed, StrategyRecursive:
	case StrategyToken:
		if estimator == nil {
			return nil, fmt.Errorf("%w: token strategy requires a token estimator", domain.ErrInvalidConfiguration)
		}
	default:
		return nil, fmt.Errorf("%w: unknown chunk strategy %q", domain.ErrInvalidConfiguration, strategy)
	}
	return &Splitter{
		strategy:  strategy,
		size:      size,
		overlap:   overlap,
		estimator: estimator,
	}, nil
}

// Chunk splits text into overlapping segments. Empty input yields no
// chunks; input shorter than one chunk yields the text unchanged.
func (s *Splitter) Chunk(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	switch s.strategy {
	case StrategyFixed:
		return s.fixedWindows([]rune(text)), nil
	case StrategyRecursive:
		units := s.splitUnits(text, recursiveSeparators)
		return s.mergeUnits(units, runeLen), nil
	case StrategyToken:
		return s.tokenMerge(wordUnits(text)), nil
	}
	return nil, fmt.Errorf("%w: unknown chunk strategy %q", domain.ErrInvalidConfiguration, s.strategy)
}

// fixedWindows slides a window of size runes advancing by size-overlap.
// The last chunk may be shorter than size but is never empty.
func (s *Splitter) fixedWindows(runes []rune) []string {
	step := s.size - s.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// splitUnits breaks text into pieces no longer than size runes, trying
// each separator in order and falling back to the next only for pieces
// that are still too long.
func (s *Splitter) splitUnits(text string, seps []string) []string {
	if runeLen(text) <= s.size {
		return []string{text}
	}

	sep := seps[0]
	if sep == "" {
		return s.splitRunes(text)
	}

	var units []string
	for _, piece := range splitKeepSep(text, sep) {
		if runeLen(piece) <= s.size {
			units = append(units, piece)
		} else {
			units = append(units, s.splitUnits(piece, seps[1:])...)
		}
	}
	return units
}

// splitRunes is the final fallback: non-overlapping windows of size runes.
func (s *Splitter) splitRunes(text string) []string {
	runes := []rune(text)
	var units []string
	for start := 0; start < len(runes); start += s.size {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		units = append(units, string(runes[start:end]))
	}
	return units
}

// mergeUnits packs adjacent units into chunks of at most size, measured
// by lengthOf. When a chunk is flushed, its trailing units up to overlap
// are re-included at the start of the next chunk.
func (s *Splitter) mergeUnits(units []string, lengthOf func(string) int) []string {
	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, ""))

		// Carry trailing units whose combined length fits the overlap.
		var tail []string
		tailLen := 0
		for i := len(current) - 1; i >= 0; i-- {
			ul := lengthOf(current[i])
			if tailLen+ul > s.overlap {
				break
			}
			tail = append([]string{current[i]}, tail...)
			tailLen += ul
		}
		current = tail
		currentLen = tailLen
	}

	for _, u := range units {
		ul := lengthOf(u)
		if currentLen > 0 && currentLen+ul > s.size {
			flush()
			// Drop carried overlap from the front until the unit fits.
			for currentLen > 0 && currentLen+ul > s.size {
				currentLen -= lengthOf(current[0])
				current = current[1:]
			}
		}
		current = append(current, u)
		currentLen += ul
	}

	if len(current) > 0 {
		text := strings.Join(current, "")
		// Skip a leftover that is pure carried overlap.
		if len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1], text) {
			chunks = append(chunks, text)
		}
	}
	return chunks
}

// tokenMerge packs word units into chunks whose estimated token count
// stays within size. The estimate is always taken over the whole
// candidate chunk, not summed per word, so the guarantee holds for the
// estimator's own notion of length.
func (s *Splitter) tokenMerge(units []string) []string {
	var chunks []string
	current := ""

	for _, u := range units {
		if current != "" && s.estimator.CountTokens(current+u) > s.size {
			chunks = append(chunks, current)
			current = s.tokenTail(current)
			for current != "" && s.estimator.CountTokens(current+u) > s.size {
				carried := wordUnits(current)
				current = strings.Join(carried[1:], "")
			}
		}
		current += u
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// tokenTail returns the longest trailing run of words whose estimated
// token count fits within the overlap.
func (s *Splitter) tokenTail(text string) string {
	if s.overlap == 0 {
		return ""
	}
	units := wordUnits(text)
	tail := ""
	for i := len(units) - 1; i >= 0; i-- {
		candidate := units[i] + tail
		if s.estimator.CountTokens(candidate) > s.overlap {
			break
		}
		tail = candidate
	}
	return tail
}

// wordUnits splits text into words with their trailing whitespace kept,
// so concatenating units reproduces the original text.
func wordUnits(text string) []string {
	var units []string
	var current strings.Builder
	inSpace := false

	for _, r := range text {
		isSpace := r == ' ' || r == '\n' || r == '\t' || r == '\r'
		if !isSpace && inSpace && current.Len() > 0 {
			units = append(units, current.String())
			current.Reset()
		}
		current.WriteRune(r)
		inSpace = isSpace
	}
	if current.Len() > 0 {
		units = append(units, current.String())
	}
	return units
}

// splitKeepSep splits text on sep keeping the separator attached to the
// preceding piece, so the pieces concatenate back to the original.
func splitKeepSep(text, sep string) []string {
	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	for i, p := range parts {
		if i < len(parts)-1 {
			p += sep
		}
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

func runeLen(s string) int {
	return len([]rune(s))
}
