package port

import "github.com/Khush-Purohit/RAG-Chatbot/internal/domain"

// VectorStore is a named set of independent similarity indices. Each
// collection supports insert, durable persistence, reload and ranked
// cosine search. Collections are fully independent: operations on one
// never affect another.
type VectorStore interface {
	// Upsert embeds the chunks' texts, assigns vectors and appends them
	// to the collection, persisting before returning. The collection is
	// created on first use. On failure nothing is written.
	Upsert(collection string, chunks []domain.Chunk) error

	// Search returns the top k chunks by descending cosine similarity.
	// Fewer than k chunks returns all of them; an unknown collection
	// returns an empty result, not an error.
	Search(collection string, query string, k int) (domain.RetrievalResult, error)

	// HasSource reports whether any chunk from the given file is already
	// stored, so re-ingesting identical content is a no-op.
	HasSource(collection string, fileID string) (bool, error)

	// Count returns the number of chunks in the collection.
	Count(collection string) (int, error)

	// Texts returns all chunk texts in insertion order, for lexical
	// fallback scoring.
	Texts(collection string) ([]string, error)

	// Collections lists the collection names present in the store.
	Collections() ([]string, error)

	// Clear removes a collection and its persisted index.
	Clear(collection string) error

	Close() error
}
