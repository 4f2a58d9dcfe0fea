package embedding

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
)

func embeddingHandler(fail *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(fail) > 0 {
			atomic.AddInt32(fail, -1)
			http.Error(w, "model loading", http.StatusServiceUnavailable)
			return
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := embeddingResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, embeddingData{
				Embedding: []float32{1, 0, 0},
				Index:     i,
			})
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestEmbedReturnsOneVectorPerInput(t *testing.T) {
	var fail int32
	srv := httptest.NewServer(embeddingHandler(&fail))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", srv.URL, 3, 0, time.Second)
	vecs, err := e.Embed([]string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}
}

func TestEmbedRetriesOnceThenSucceeds(t *testing.T) {
	fail := int32(1)
	srv := httptest.NewServer(embeddingHandler(&fail))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", srv.URL, 3, 0, time.Second)
	vecs, err := e.Embed([]string{"hello"})
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if len(vecs) != 1 {
		t.Fatalf("expected 1 vector, got %d", len(vecs))
	}
}

func TestEmbedSurfacesEmbeddingUnavailable(t *testing.T) {
	fail := int32(10)
	srv := httptest.NewServer(embeddingHandler(&fail))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", srv.URL, 3, 0, time.Second)
	vecs, err := e.Embed([]string{"hello"})
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if vecs != nil {
		t.Errorf("expected no partial results, got %v", vecs)
	}
}

func TestEmbedHitsV1EndpointFromBareBaseURL(t *testing.T) {
	var fail int32
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		embeddingHandler(&fail)(w, r)
	}))
	defer srv.Close()

	// Config and env overrides carry the bare server root, the same
	// value the chat client uses for /api/chat.
	for _, base := range []string{srv.URL, srv.URL + "/", srv.URL + "/v1"} {
		e := NewOllamaEmbedder("nomic-embed-text", base, 3, 0, time.Second)
		if _, err := e.Embed([]string{"a"}); err != nil {
			t.Fatalf("Embed with base %q: %v", base, err)
		}
		if gotPath != "/v1/embeddings" {
			t.Errorf("base %q posted to %q, want /v1/embeddings", base, gotPath)
		}
	}
}

func TestEmbedHonorsBatchSize(t *testing.T) {
	var fail int32
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		embeddingHandler(&fail)(w, r)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", srv.URL, 3, 2, time.Second)
	vecs, err := e.Embed([]string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 5 {
		t.Fatalf("expected 5 vectors, got %d", len(vecs))
	}
	if got := atomic.LoadInt32(&requests); got != 3 {
		t.Errorf("expected 3 batched requests for 5 inputs at size 2, got %d", got)
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	e := NewOllamaEmbedder("nomic-embed-text", "http://unused", 3, 0, time.Second)
	vecs, err := e.Embed(nil)
	if err != nil || vecs != nil {
		t.Errorf("expected nil, nil for empty input, got %v, %v", vecs, err)
	}
}

func TestMockEmbedderDeterministic(t *testing.T) {
	e := NewMockEmbedder(8)
	a, err := e.Embed([]string{"same text"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Embed([]string{"same text"})
	if err != nil {
		t.Fatal(err)
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("mock embedder not deterministic at %d", i)
		}
	}
}
