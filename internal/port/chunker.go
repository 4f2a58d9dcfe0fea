package port

// Chunker splits normalized text into overlapping segments.
type Chunker interface {
	Chunk(text string) ([]string, error)
}
