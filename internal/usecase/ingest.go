package usecase

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/fs"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/normalizer"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/port"
)

// IngestUseCase turns files of any supported modality into embedded
// chunks in the vector store, or rows in the tabular store for CSV.
type IngestUseCase struct {
	store       port.VectorStore
	tabular     port.TabularStore
	splitter    port.Chunker
	walker      *fs.Walker
	normalizers map[domain.Mode]port.Normalizer
}

func NewIngestUseCase(
	store port.VectorStore,
	tabular port.TabularStore,
	splitter port.Chunker,
	walker *fs.Walker,
	normalizers map[domain.Mode]port.Normalizer,
) *IngestUseCase {
	return &IngestUseCase{
		store:       store,
		tabular:     tabular,
		splitter:    splitter,
		walker:      walker,
		normalizers: normalizers,
	}
}

// IngestResult contains the results of an ingestion run.
type IngestResult struct {
	FilesIngested int
	FilesSkipped  int
	ChunksCreated int
	Diagnostics   []string
	Errors        []string
}

// IngestDir ingests every matching file under root. Per-file failures
// are collected rather than aborting the run.
func (u *IngestUseCase) IngestDir(root string, progress func(done, total int)) (*IngestResult, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	result := &IngestResult{}
	for i, file := range files {
		if err := u.ingestInto(result, file.Path, file.Mode); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Path, err))
		}
		if progress != nil {
			progress(i+1, len(files))
		}
	}
	return result, nil
}

// IngestFile ingests a single file, detecting the modality from its
// extension.
func (u *IngestUseCase) IngestFile(path string) (*IngestResult, error) {
	result := &IngestResult{}
	if err := u.ingestInto(result, path, fs.DetectMode(path)); err != nil {
		return result, err
	}
	return result, nil
}

func (u *IngestUseCase) ingestInto(result *IngestResult, path string, mode domain.Mode) error {
	data, err := fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	name := filepath.Base(path)

	if mode == domain.ModeSQL {
		schema, err := u.tabular.IngestCSV(data, name)
		if err != nil {
			return fmt.Errorf("failed to load CSV: %w", err)
		}
		result.FilesIngested++
		result.Diagnostics = append(result.Diagnostics,
			fmt.Sprintf("%s: loaded as table %s (%d rows)", name, schema.Table, schema.RowCount))
		return nil
	}

	fileID := normalizer.FileID(data)
	collection := CollectionFor(mode, fileID)

	dup, err := u.store.HasSource(collection, fileID)
	if err != nil {
		return err
	}
	if dup {
		result.FilesSkipped++
		result.Diagnostics = append(result.Diagnostics, fmt.Sprintf("%s: already ingested", name))
		return nil
	}

	units, diags, err := u.normalize(mode, data, name, fileID)
	for _, d := range diags {
		result.Diagnostics = append(result.Diagnostics, fmt.Sprintf("%s: %s", name, d))
	}
	if err != nil {
		return err
	}

	var chunks []domain.Chunk
	for _, unit := range units {
		pieces, err := u.splitter.Chunk(unit.Text)
		if err != nil {
			return fmt.Errorf("failed to chunk content: %w", err)
		}
		for _, text := range pieces {
			chunks = append(chunks, domain.Chunk{
				Collection: collection,
				Text:       text,
				Source:     unit.Source,
			})
		}
	}
	if len(chunks) == 0 {
		result.FilesSkipped++
		result.Diagnostics = append(result.Diagnostics, fmt.Sprintf("%s: no usable content", name))
		return nil
	}

	if err := u.store.Upsert(collection, chunks); err != nil {
		return err
	}
	result.FilesIngested++
	result.ChunksCreated += len(chunks)
	return nil
}

func (u *IngestUseCase) normalize(mode domain.Mode, data []byte, name, fileID string) ([]port.Unit, []string, error) {
	if mode == domain.ModeNormal {
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, nil, nil
		}
		return []port.Unit{{Text: text, Source: domain.SourceRef{FileID: fileID}}}, nil, nil
	}

	n, ok := u.normalizers[mode]
	if !ok {
		return nil, nil, fmt.Errorf("no handler for %s files", mode)
	}
	return n.Normalize(data, name)
}

// CollectionFor maps a modality to its collection. Plain-text files
// land in "text", reachable through ModeText. Each video gets a
// collection of its own so a single recording can be queried without
// interference from the rest of the library.
func CollectionFor(mode domain.Mode, fileID string) string {
	if mode == domain.ModeVideo {
		return "video:" + fileID
	}
	switch mode {
	case domain.ModePDF:
		return "pdf"
	case domain.ModeImage:
		return "image"
	case domain.ModeAudio:
		return "audio"
	default:
		return "text"
	}
}
