package embedding

import (
	"fmt"
	"hash/fnv"
	"math"
)

// MockEmbedder produces deterministic pseudo-embeddings for tests and
// offline runs. Identical texts always map to identical vectors.
type MockEmbedder struct {
	dimension int
	failures  int
}

// NewMockEmbedder creates a mock embedder with the given dimension.
func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

// FailNext makes the next n Embed calls fail, for exercising error paths.
func (e *MockEmbedder) FailNext(n int) {
	e.failures = n
}

// Embed maps each text onto a deterministic unit vector derived from
// its character content.
func (e *MockEmbedder) Embed(texts []string) ([][]float32, error) {
	if e.failures > 0 {
		e.failures--
		return nil, fmt.Errorf("mock embedder failure")
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.dimension)
		h := fnv.New32a()
		for j, r := range text {
			h.Reset()
			fmt.Fprintf(h, "%d:%c", j, r)
			v[int(h.Sum32())%e.dimension] += 1
		}
		var norm float64
		for _, x := range v {
			norm += float64(x) * float64(x)
		}
		if norm == 0 {
			v[0] = 1
			norm = 1
		}
		scale := float32(1 / math.Sqrt(norm))
		for j := range v {
			v[j] *= scale
		}
		embeddings[i] = v
	}
	return embeddings, nil
}

// Dimension returns the embedding vector dimension.
func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

// ModelName returns the name of the embedding model.
func (e *MockEmbedder) ModelName() string {
	return "mock"
}
