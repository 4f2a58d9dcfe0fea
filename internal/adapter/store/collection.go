package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/port"
)

var bucketCollections = []byte("collections")

// CollectionStore is a bbolt-backed set of named similarity indices.
// Each collection keeps its chunks in insertion order both on disk
// (sequence-keyed records, which double as the raw chunk log) and in
// memory. Vectors are L2-normalized on the way in, so cosine similarity
// is a plain dot product and persisted scores match fresh ones.
//
// Locking: the store mutex only guards the collection map; each
// collection has its own RWMutex so one collection's writer never
// blocks another collection.
type CollectionStore struct {
	db       *bbolt.DB
	embedder port.Embedder

	mu          sync.Mutex
	collections map[string]*collection
	corrupt     map[string]error
}

type collection struct {
	mu      sync.RWMutex
	chunks  []domain.Chunk
	sources map[string]struct{}
}

// chunkRecord is the persisted form of a chunk. Text and provenance are
// kept next to the vector so a damaged vector can be re-embedded from
// the record itself.
type chunkRecord struct {
	ID     string           `json:"id"`
	Text   string           `json:"text"`
	Source domain.SourceRef `json:"source"`
	Vector []float32        `json:"vector"`
}

// NewCollectionStore opens the database at path and reloads every
// persisted collection. A collection that cannot be read back and
// cannot be rebuilt from its chunk log is quarantined; operations on it
// fail with ErrIndexCorruption while other collections stay usable.
func NewCollectionStore(path string, embedder port.Embedder) (*CollectionStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCollections)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create collections bucket: %w", err)
	}

	s := &CollectionStore{
		db:          db,
		embedder:    embedder,
		collections: make(map[string]*collection),
		corrupt:     make(map[string]error),
	}
	if err := s.loadAll(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// loadAll reloads every persisted collection into memory.
func (s *CollectionStore) loadAll() error {
	var names []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCollections).ForEachBucket(func(name []byte) error {
			names = append(names, string(name))
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range names {
		if err := s.load(name); err != nil {
			s.corrupt[name] = err
		}
	}
	return nil
}

// load rebuilds one collection from its persisted records. Records with
// a readable text but an unusable vector are re-embedded from the chunk
// log; a record that cannot be decoded at all is corruption.
func (s *CollectionStore) load(name string) error {
	col := &collection{sources: make(map[string]struct{})}
	var reembed []int // indices into col.chunks needing fresh vectors
	dim := s.embedder.Dimension()

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCollections).Bucket([]byte(name))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var rec chunkRecord
			if err := json.Unmarshal(v, &rec); err != nil || rec.Text == "" {
				return fmt.Errorf("%w: unreadable chunk record in %q", domain.ErrIndexCorruption, name)
			}
			chunk := domain.Chunk{
				ID:         rec.ID,
				Collection: name,
				Text:       rec.Text,
				Source:     rec.Source,
				Vector:     rec.Vector,
			}
			if len(rec.Vector) != dim {
				reembed = append(reembed, len(col.chunks))
			}
			col.chunks = append(col.chunks, chunk)
			col.sources[rec.Source.FileID] = struct{}{}
			return nil
		})
	})
	if err != nil {
		return err
	}

	if len(reembed) > 0 {
		texts := make([]string, len(reembed))
		for i, idx := range reembed {
			texts[i] = col.chunks[idx].Text
		}
		vectors, err := s.embedder.Embed(texts)
		if err != nil {
			return fmt.Errorf("%w: rebuild of %q failed: %v", domain.ErrIndexCorruption, name, err)
		}
		for i, idx := range reembed {
			col.chunks[idx].Vector = normalize(vectors[i])
		}
		if err := s.rewrite(name, col.chunks); err != nil {
			return fmt.Errorf("%w: rewrite of %q failed: %v", domain.ErrIndexCorruption, name, err)
		}
	}

	s.mu.Lock()
	s.collections[name] = col
	s.mu.Unlock()
	return nil
}

// rewrite replaces a collection's persisted records wholesale, used
// after a rebuild.
func (s *CollectionStore) rewrite(name string, chunks []domain.Chunk) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketCollections)
		if root.Bucket([]byte(name)) != nil {
			if err := root.DeleteBucket([]byte(name)); err != nil {
				return err
			}
		}
		b, err := root.CreateBucket([]byte(name))
		if err != nil {
			return err
		}
		for _, chunk := range chunks {
			if err := putRecord(b, chunk); err != nil {
				return err
			}
		}
		return nil
	})
}

func putRecord(b *bbolt.Bucket, chunk domain.Chunk) error {
	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	data, err := json.Marshal(chunkRecord{
		ID:     chunk.ID,
		Text:   chunk.Text,
		Source: chunk.Source,
		Vector: chunk.Vector,
	})
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// getOrCreate returns the in-memory collection, creating it on first use.
func (s *CollectionStore) getOrCreate(name string) (*collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, bad := s.corrupt[name]; bad {
		return nil, err
	}
	col, ok := s.collections[name]
	if !ok {
		col = &collection{sources: make(map[string]struct{})}
		s.collections[name] = col
	}
	return col, nil
}

// get returns the collection or nil when it was never created.
func (s *CollectionStore) get(name string) (*collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, bad := s.corrupt[name]; bad {
		return nil, err
	}
	return s.collections[name], nil
}

// Upsert embeds the chunks' texts, appends them to the collection and
// persists the new records before returning. The exclusive collection
// lock covers the whole embed-append-persist sequence, and a failure at
// any point leaves both memory and disk at their pre-call state.
func (s *CollectionStore) Upsert(name string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	col, err := s.getOrCreate(name)
	if err != nil {
		return err
	}

	col.mu.Lock()
	defer col.mu.Unlock()

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.Embed(texts)
	if err != nil {
		return fmt.Errorf("upsert into %q failed: %w", name, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	dim := s.embedder.Dimension()
	prepared := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		if len(vectors[i]) != dim {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", dim, len(vectors[i]))
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.Collection = name
		c.Vector = normalize(vectors[i])
		prepared[i] = c
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(bucketCollections).CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return err
		}
		for _, chunk := range prepared {
			if err := putRecord(b, chunk); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist collection %q: %w", name, err)
	}

	// Memory is updated only after the transaction committed.
	col.chunks = append(col.chunks, prepared...)
	for _, chunk := range prepared {
		col.sources[chunk.Source.FileID] = struct{}{}
	}
	return nil
}

// Search embeds the query and returns the top k chunks by descending
// cosine similarity. Ties keep insertion order. An unknown collection
// yields an empty result: absence of content is not an error.
func (s *CollectionStore) Search(name string, query string, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		return domain.RetrievalResult{}, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidConfiguration, k)
	}
	col, err := s.get(name)
	if err != nil {
		return domain.RetrievalResult{}, err
	}
	if col == nil {
		return domain.RetrievalResult{}, nil
	}

	vectors, err := s.embedder.Embed([]string{query})
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("search in %q failed: %w", name, err)
	}
	queryVec := normalize(vectors[0])

	col.mu.RLock()
	defer col.mu.RUnlock()

	if len(col.chunks) == 0 {
		return domain.RetrievalResult{}, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(col.chunks))
	for i, chunk := range col.chunks {
		scores[i] = scored{idx: i, score: dot(queryVec, chunk.Vector)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if k > len(scores) {
		k = len(scores)
	}
	result := domain.RetrievalResult{
		Chunks: make([]domain.Chunk, k),
		Scores: make([]float64, k),
	}
	for i := 0; i < k; i++ {
		result.Chunks[i] = col.chunks[scores[i].idx]
		result.Scores[i] = scores[i].score
	}
	return result, nil
}

// HasSource reports whether any chunk from fileID is already stored.
func (s *CollectionStore) HasSource(name string, fileID string) (bool, error) {
	col, err := s.get(name)
	if err != nil {
		return false, err
	}
	if col == nil {
		return false, nil
	}
	col.mu.RLock()
	defer col.mu.RUnlock()
	_, ok := col.sources[fileID]
	return ok, nil
}

// Count returns the number of chunks in the collection.
func (s *CollectionStore) Count(name string) (int, error) {
	col, err := s.get(name)
	if err != nil {
		return 0, err
	}
	if col == nil {
		return 0, nil
	}
	col.mu.RLock()
	defer col.mu.RUnlock()
	return len(col.chunks), nil
}

// Texts returns all chunk texts in insertion order.
func (s *CollectionStore) Texts(name string) ([]string, error) {
	col, err := s.get(name)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, nil
	}
	col.mu.RLock()
	defer col.mu.RUnlock()
	texts := make([]string, len(col.chunks))
	for i, chunk := range col.chunks {
		texts[i] = chunk.Text
	}
	return texts, nil
}

// Collections lists the collection names present in the store.
func (s *CollectionStore) Collections() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Clear removes a collection and its persisted records. Clearing an
// unknown collection is a no-op.
func (s *CollectionStore) Clear(name string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketCollections)
		if root.Bucket([]byte(name)) == nil {
			return nil
		}
		return root.DeleteBucket([]byte(name))
	})
	if err != nil {
		return fmt.Errorf("failed to clear collection %q: %w", name, err)
	}

	s.mu.Lock()
	delete(s.collections, name)
	delete(s.corrupt, name)
	s.mu.Unlock()
	return nil
}

// Close closes the underlying database.
func (s *CollectionStore) Close() error {
	return s.db.Close()
}

// normalize returns the L2-normalized copy of v.
func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * scale
	}
	return out
}

// dot computes the inner product of two normalized vectors, which
// equals their cosine similarity.
func dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
