package port

import "github.com/Khush-Purohit/RAG-Chatbot/internal/domain"

// Unit is one chunk-ready span of text produced by a normalizer, with
// its provenance inside the source file.
type Unit struct {
	Text   string
	Source domain.SourceRef
}

// Normalizer converts one file type into chunk-ready text units. A
// failure on one page or segment is reported as a diagnostic and must
// not abort the remaining units of the same file.
type Normalizer interface {
	Normalize(data []byte, filename string) ([]Unit, []string, error)
}
