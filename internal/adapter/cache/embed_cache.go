package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/port"
)

// CachedEmbedder memoizes embedding calls with an LRU bound. Repeated
// questions in a chat session hit the cache instead of the model.
// Entries never expire: a text always embeds to the same vector under
// a fixed model.
type CachedEmbedder struct {
	inner   port.Embedder
	mu      sync.Mutex
	entries map[string][]float32
	order   []string
	maxSize int
}

func NewCachedEmbedder(inner port.Embedder, maxSize int) *CachedEmbedder {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &CachedEmbedder{
		inner:   inner,
		entries: make(map[string][]float32),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

func cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:16])
}

// Embed returns cached vectors where available and embeds only the
// misses, in one batched call. On failure nothing is cached and no
// partial result is returned.
func (c *CachedEmbedder) Embed(texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	c.mu.Lock()
	for i, text := range texts {
		key := cacheKey(text)
		if vec, ok := c.entries[key]; ok {
			vectors[i] = vec
			c.moveToEnd(key)
		} else {
			missTexts = append(missTexts, text)
			missIdx = append(missIdx, i)
		}
	}
	c.mu.Unlock()

	if len(missTexts) == 0 {
		return vectors, nil
	}

	embedded, err := c.inner.Embed(missTexts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for j, vec := range embedded {
		vectors[missIdx[j]] = vec
		c.put(cacheKey(missTexts[j]), vec)
	}
	c.mu.Unlock()

	return vectors, nil
}

func (c *CachedEmbedder) Dimension() int    { return c.inner.Dimension() }
func (c *CachedEmbedder) ModelName() string { return c.inner.ModelName() }

// Size returns the number of cached vectors.
func (c *CachedEmbedder) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *CachedEmbedder) put(key string, vec []float32) {
	if _, exists := c.entries[key]; exists {
		c.entries[key] = vec
		c.moveToEnd(key)
		return
	}
	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = vec
	c.order = append(c.order, key)
}

func (c *CachedEmbedder) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *CachedEmbedder) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *CachedEmbedder) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
