package llm

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/port"
)

func chatServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: reply},
		})
	}))
}

func TestGenerateWithSystemPrependsSystemMessage(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Content: "ok"}})
	}))
	defer srv.Close()

	c := NewOllamaClient("tinyllama:1.1b", "moondream:1.8b", srv.URL, time.Second)
	reply, err := c.GenerateWithSystem("be brief", []port.Message{
		{Role: "user", Content: "hello"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if reply != "ok" {
		t.Errorf("reply = %q", reply)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Errorf("expected system message first, got %+v", got.Messages)
	}
	if got.Stream {
		t.Error("stream must be false")
	}
}

func TestGenerateSurfacesModelUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaClient("tinyllama:1.1b", "moondream:1.8b", srv.URL, time.Second)
	_, err := c.Generate("hello")
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestDescribeSendsImage(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Content: "a cat on a desk"}})
	}))
	defer srv.Close()

	c := NewOllamaClient("tinyllama:1.1b", "moondream:1.8b", srv.URL, time.Second)
	desc, err := c.Describe("describe this", []byte{0x89, 0x50})
	if err != nil {
		t.Fatal(err)
	}
	if desc != "a cat on a desk" {
		t.Errorf("desc = %q", desc)
	}
	if got.Model != "moondream:1.8b" {
		t.Errorf("vision call used model %q", got.Model)
	}
	if len(got.Messages) != 1 || len(got.Messages[0].Images) != 1 {
		t.Errorf("expected one message with one image, got %+v", got.Messages)
	}
}

func TestDescribeEmptyReplyIsVisionUnavailable(t *testing.T) {
	srv := chatServer(t, "")
	defer srv.Close()

	c := NewOllamaClient("tinyllama:1.1b", "moondream:1.8b", srv.URL, time.Second)
	_, err := c.Describe("describe this", []byte{0x01})
	if !errors.Is(err, domain.ErrVisionUnavailable) {
		t.Fatalf("expected ErrVisionUnavailable, got %v", err)
	}
}
