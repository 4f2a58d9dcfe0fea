package cli

import (
	"fmt"
	"time"

	"github.com/Khush-Purohit/RAG-Chatbot/config"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/analyzer"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/cache"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/chunker"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/embedding"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/fs"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/llm"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/normalizer"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/store"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/tabular"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/adapter/transcribe"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/port"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/usecase"
)

// app wires the adapters and use cases for one command invocation.
type app struct {
	Store   *store.CollectionStore
	Tabular *tabular.SQLiteStore
	LLM     *llm.OllamaClient
	Ingest  *usecase.IngestUseCase
	Ask     *usecase.AskUseCase
}

func newApp(dir string, cfg *config.Config) (*app, error) {
	if err := config.EnsureDataDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	embedder := cache.NewCachedEmbedder(embedding.NewOllamaEmbedder(
		cfg.Embedding.Model,
		cfg.Embedding.BaseURL,
		cfg.Embedding.Dimension,
		cfg.Embedding.BatchSize,
		time.Duration(cfg.Embedding.TimeoutS)*time.Second,
	), 256)

	st, err := store.NewCollectionStore(config.IndexDBPath(dir), embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection store: %w", err)
	}

	tab, err := tabular.NewSQLiteStore(config.TabularDBPath(dir))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to open tabular store: %w", err)
	}

	modelTimeout := time.Duration(cfg.Models.TimeoutS) * time.Second
	llmClient := llm.NewOllamaClient(cfg.Models.Generation, cfg.Models.Vision, cfg.Models.OllamaURL, modelTimeout)
	whisper := transcribe.NewWhisperClient(cfg.Models.Whisper, cfg.Models.WhisperURL, modelTimeout)

	strategy, ok := chunker.ParseStrategy(cfg.Chunking.Strategy)
	if !ok {
		st.Close()
		tab.Close()
		return nil, fmt.Errorf("%w: unknown chunking strategy %q", domain.ErrInvalidConfiguration, cfg.Chunking.Strategy)
	}
	tokenizer := analyzer.NewTokenizer()
	splitter, err := chunker.NewSplitter(strategy, cfg.Chunking.Size, cfg.Chunking.Overlap, tokenizer)
	if err != nil {
		st.Close()
		tab.Close()
		return nil, err
	}

	normalizers := map[domain.Mode]port.Normalizer{
		domain.ModePDF:   normalizer.NewPDF(cfg.Ingest.MaxPDFMB),
		domain.ModeImage: normalizer.NewImage(llmClient),
		domain.ModeAudio: normalizer.NewAudio(whisper),
		domain.ModeVideo: normalizer.NewVideo(whisper),
	}

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	compiler := tabular.NewCompiler(llmClient, tab, cfg.Tabular.RowLimit)

	return &app{
		Store:   st,
		Tabular: tab,
		LLM:     llmClient,
		Ingest:  usecase.NewIngestUseCase(st, tab, splitter, walker, normalizers),
		Ask: usecase.NewAskUseCase(st, llmClient, compiler, tab, tokenizer,
			cfg.Retrieve.TopK, cfg.Retrieve.MaxPromptLength),
	}, nil
}

func (a *app) Close() {
	a.Store.Close()
	a.Tabular.Close()
}
