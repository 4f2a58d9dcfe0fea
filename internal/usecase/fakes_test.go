package usecase

import (
	"errors"
	"fmt"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/port"
)

type fakeVectorStore struct {
	chunks    map[string][]domain.Chunk
	results   map[string]domain.RetrievalResult
	upserts   []string
	searchErr error
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{
		chunks:  make(map[string][]domain.Chunk),
		results: make(map[string]domain.RetrievalResult),
	}
}

func (f *fakeVectorStore) Upsert(collection string, chunks []domain.Chunk) error {
	f.upserts = append(f.upserts, collection)
	f.chunks[collection] = append(f.chunks[collection], chunks...)
	return nil
}

func (f *fakeVectorStore) Search(collection, query string, k int) (domain.RetrievalResult, error) {
	if f.searchErr != nil {
		return domain.RetrievalResult{}, f.searchErr
	}
	return f.results[collection], nil
}

func (f *fakeVectorStore) HasSource(collection, fileID string) (bool, error) {
	for _, c := range f.chunks[collection] {
		if c.Source.FileID == fileID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeVectorStore) Count(collection string) (int, error) {
	return len(f.chunks[collection]), nil
}

func (f *fakeVectorStore) Texts(collection string) ([]string, error) {
	var texts []string
	for _, c := range f.chunks[collection] {
		texts = append(texts, c.Text)
	}
	return texts, nil
}

func (f *fakeVectorStore) Collections() ([]string, error) {
	var names []string
	for name := range f.chunks {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeVectorStore) Clear(collection string) error {
	delete(f.chunks, collection)
	return nil
}

func (f *fakeVectorStore) Close() error { return nil }

type fakeLLM struct {
	reply    string
	err      error
	system   string
	messages []port.Message
	calls    int
}

func (f *fakeLLM) Generate(prompt string) (string, error) {
	return f.GenerateWithSystem("", []port.Message{{Role: "user", Content: prompt}})
}

func (f *fakeLLM) GenerateWithSystem(system string, messages []port.Message) (string, error) {
	f.calls++
	f.system = system
	f.messages = messages
	return f.reply, f.err
}

func (f *fakeLLM) ModelName() string { return "test-model" }

type fakeTabularStore struct {
	schema    domain.TableSchema
	hasSchema bool
	result    domain.TabularResult
	ingested  []string
	executed  []string
}

func (f *fakeTabularStore) IngestCSV(data []byte, filename string) (domain.TableSchema, error) {
	f.ingested = append(f.ingested, filename)
	f.hasSchema = true
	if f.schema.Table == "" {
		f.schema = domain.TableSchema{Table: "t", RowCount: 1}
	}
	return f.schema, nil
}

func (f *fakeTabularStore) Schema() (domain.TableSchema, bool, error) {
	return f.schema, f.hasSchema, nil
}

func (f *fakeTabularStore) ExecuteSelect(query string) (domain.TabularResult, error) {
	f.executed = append(f.executed, query)
	out := f.result
	out.SQL = query
	return out, nil
}

func (f *fakeTabularStore) Close() error { return nil }

type fakeNormalizer struct {
	units []port.Unit
	diags []string
	err   error
}

func (f *fakeNormalizer) Normalize(data []byte, filename string) ([]port.Unit, []string, error) {
	if f.err != nil {
		return nil, f.diags, f.err
	}
	if f.units == nil {
		return []port.Unit{{Text: fmt.Sprintf("normalized %s", filename)}}, f.diags, nil
	}
	return f.units, f.diags, nil
}

var errBoom = errors.New("boom")
