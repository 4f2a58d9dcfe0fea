package cache

import (
	"errors"
	"testing"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/embedding"
)

type countingEmbedder struct {
	inner *embedding.MockEmbedder
	calls int
	texts int
	fail  bool
}

func (c *countingEmbedder) Embed(texts []string) ([][]float32, error) {
	c.calls++
	c.texts += len(texts)
	if c.fail {
		return nil, errors.New("embedder down")
	}
	return c.inner.Embed(texts)
}

func (c *countingEmbedder) Dimension() int    { return c.inner.Dimension() }
func (c *countingEmbedder) ModelName() string { return c.inner.ModelName() }

func newCounting() *countingEmbedder {
	return &countingEmbedder{inner: embedding.NewMockEmbedder(8)}
}

func TestCachedEmbedderHit(t *testing.T) {
	inner := newCounting()
	c := NewCachedEmbedder(inner, 10)

	first, err := c.Embed([]string{"hello"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	second, err := c.Embed([]string{"hello"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected one backend call, got %d", inner.calls)
	}
	for i := range first[0] {
		if first[0][i] != second[0][i] {
			t.Fatal("cached vector differs from original")
		}
	}
}

func TestCachedEmbedderPartialMiss(t *testing.T) {
	inner := newCounting()
	c := NewCachedEmbedder(inner, 10)

	if _, err := c.Embed([]string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	vectors, err := c.Embed([]string{"b", "c", "a"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	// Only "c" was a miss on the second call.
	if inner.texts != 3 {
		t.Errorf("expected 3 texts sent to backend in total, got %d", inner.texts)
	}

	want, _ := inner.inner.Embed([]string{"b", "c", "a"})
	for i := range want {
		for j := range want[i] {
			if vectors[i][j] != want[i][j] {
				t.Fatalf("vector %d differs from direct embedding", i)
			}
		}
	}
}

func TestCachedEmbedderEviction(t *testing.T) {
	inner := newCounting()
	c := NewCachedEmbedder(inner, 2)

	if _, err := c.Embed([]string{"one", "two", "three"}); err != nil {
		t.Fatal(err)
	}
	if c.Size() != 2 {
		t.Errorf("expected size 2 after eviction, got %d", c.Size())
	}
}

func TestCachedEmbedderFailureNotCached(t *testing.T) {
	inner := newCounting()
	c := NewCachedEmbedder(inner, 10)

	inner.fail = true
	if _, err := c.Embed([]string{"x"}); err == nil {
		t.Fatal("expected error from backend")
	}
	if c.Size() != 0 {
		t.Error("failed call must not populate the cache")
	}

	inner.fail = false
	if _, err := c.Embed([]string{"x"}); err != nil {
		t.Fatalf("Embed after recovery: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected retryable miss, got %d calls", inner.calls)
	}
}
