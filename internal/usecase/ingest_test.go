package usecase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/chunker"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/fs"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/normalizer"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/port"
)

func newTestIngest(t *testing.T, store port.VectorStore, tab port.TabularStore, normalizers map[domain.Mode]port.Normalizer) *IngestUseCase {
	t.Helper()
	splitter, err := chunker.NewSplitter(chunker.StrategyRecursive, 100, 20, nil)
	if err != nil {
		t.Fatal(err)
	}
	walker := fs.NewWalker(nil, nil)
	return NewIngestUseCase(store, tab, splitter, walker, normalizers)
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestTextFile(t *testing.T) {
	store := newFakeVectorStore()
	u := newTestIngest(t, store, &fakeTabularStore{}, nil)

	path := writeTemp(t, "notes.txt", "Some plain text about gophers.")
	result, err := u.IngestFile(path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if result.FilesIngested != 1 || result.ChunksCreated == 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(store.upserts) != 1 || store.upserts[0] != "text" {
		t.Errorf("expected one upsert into text, got %v", store.upserts)
	}
	for _, c := range store.chunks["text"] {
		if c.Source.FileID == "" {
			t.Error("chunk missing file ID")
		}
	}
}

func TestIngestDuplicateSkipped(t *testing.T) {
	store := newFakeVectorStore()
	u := newTestIngest(t, store, &fakeTabularStore{}, nil)

	content := "Identical content both times."
	first := writeTemp(t, "a.txt", content)
	second := writeTemp(t, "b.txt", content)

	if _, err := u.IngestFile(first); err != nil {
		t.Fatal(err)
	}
	result, err := u.IngestFile(second)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if result.FilesSkipped != 1 || result.FilesIngested != 0 {
		t.Fatalf("expected skip, got %+v", result)
	}
	if len(store.upserts) != 1 {
		t.Errorf("duplicate content must not be upserted again: %v", store.upserts)
	}
}

func TestIngestCSVGoesToTabularStore(t *testing.T) {
	store := newFakeVectorStore()
	tab := &fakeTabularStore{}
	u := newTestIngest(t, store, tab, nil)

	path := writeTemp(t, "sales.csv", "region,amount\nnorth,10\n")
	result, err := u.IngestFile(path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if len(tab.ingested) != 1 || tab.ingested[0] != "sales.csv" {
		t.Errorf("CSV not routed to tabular store: %v", tab.ingested)
	}
	if len(store.upserts) != 0 {
		t.Errorf("CSV must not reach the vector store: %v", store.upserts)
	}
	if result.FilesIngested != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestIngestVideoGetsOwnCollection(t *testing.T) {
	store := newFakeVectorStore()
	normalizers := map[domain.Mode]port.Normalizer{
		domain.ModeVideo: &fakeNormalizer{units: []port.Unit{{Text: "spoken words"}}},
	}
	u := newTestIngest(t, store, &fakeTabularStore{}, normalizers)

	path := writeTemp(t, "clip.mp4", "binary-ish")
	if _, err := u.IngestFile(path); err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if len(store.upserts) != 1 || !strings.HasPrefix(store.upserts[0], "video:") {
		t.Fatalf("expected a per-video collection, got %v", store.upserts)
	}
	wantID := normalizer.FileID([]byte("binary-ish"))
	if store.upserts[0] != "video:"+wantID {
		t.Errorf("collection = %s, want video:%s", store.upserts[0], wantID)
	}
}

func TestIngestNormalizerDiagnosticsKept(t *testing.T) {
	store := newFakeVectorStore()
	normalizers := map[domain.Mode]port.Normalizer{
		domain.ModePDF: &fakeNormalizer{
			units: []port.Unit{{Text: "page text", Source: domain.SourceRef{Page: 1}}},
			diags: []string{"page 2: no text extracted"},
		},
	}
	u := newTestIngest(t, store, &fakeTabularStore{}, normalizers)

	path := writeTemp(t, "doc.pdf", "pdf bytes")
	result, err := u.IngestFile(path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if len(result.Diagnostics) != 1 || !strings.Contains(result.Diagnostics[0], "doc.pdf") {
		t.Errorf("expected file-prefixed diagnostic, got %v", result.Diagnostics)
	}
	if result.FilesIngested != 1 {
		t.Errorf("partial extraction should still ingest: %+v", result)
	}
}

func TestIngestDirCollectsPerFileErrors(t *testing.T) {
	store := newFakeVectorStore()
	normalizers := map[domain.Mode]port.Normalizer{
		domain.ModePDF: &fakeNormalizer{err: errBoom},
	}
	u := newTestIngest(t, store, &fakeTabularStore{}, normalizers)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ok.txt"), []byte("fine text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.pdf"), []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := u.IngestDir(dir, nil)
	if err != nil {
		t.Fatalf("IngestDir: %v", err)
	}
	if result.FilesIngested != 1 {
		t.Errorf("good file should survive a bad sibling: %+v", result)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "bad.pdf") {
		t.Errorf("expected one error for bad.pdf, got %v", result.Errors)
	}
}

func TestIngestEmptyTextSkipped(t *testing.T) {
	store := newFakeVectorStore()
	u := newTestIngest(t, store, &fakeTabularStore{}, nil)

	path := writeTemp(t, "empty.txt", "   \n  ")
	result, err := u.IngestFile(path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if result.FilesSkipped != 1 || len(store.upserts) != 0 {
		t.Errorf("blank file should be skipped: %+v, upserts %v", result, store.upserts)
	}
}

func TestCollectionFor(t *testing.T) {
	cases := []struct {
		mode   domain.Mode
		fileID string
		want   string
	}{
		{domain.ModeNormal, "x", "text"},
		{domain.ModePDF, "x", "pdf"},
		{domain.ModeImage, "x", "image"},
		{domain.ModeAudio, "x", "audio"},
		{domain.ModeVideo, "abc", "video:abc"},
	}
	for _, tc := range cases {
		if got := CollectionFor(tc.mode, tc.fileID); got != tc.want {
			t.Errorf("CollectionFor(%s, %s) = %s, want %s", tc.mode, tc.fileID, got, tc.want)
		}
	}
}
