package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the chatbot.
type Config struct {
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Models    ModelsConfig    `yaml:"models"`
	Tabular   TabularConfig   `yaml:"tabular"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// ChunkingConfig holds text splitting configuration.
type ChunkingConfig struct {
	Strategy string `yaml:"strategy"` // "fixed", "recursive", "token"
	Size     int    `yaml:"size"`
	Overlap  int    `yaml:"overlap"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK            int `yaml:"top_k"`
	MaxPromptLength int `yaml:"max_prompt_length"`
	MemorySize      int `yaml:"memory_size"` // retained conversation exchanges
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"` // 0 = infer from model
	BatchSize int    `yaml:"batch_size"`
	TimeoutS  int    `yaml:"timeout_seconds"`
}

// ModelsConfig names the generation backends and their endpoints.
type ModelsConfig struct {
	Generation string `yaml:"generation"`
	Vision     string `yaml:"vision"`
	Whisper    string `yaml:"whisper"`
	OllamaURL  string `yaml:"ollama_url"`
	WhisperURL string `yaml:"whisper_url"`
	TimeoutS   int    `yaml:"timeout_seconds"`
}

// TabularConfig holds CSV question answering configuration.
type TabularConfig struct {
	RowLimit int `yaml:"row_limit"`
}

// IngestConfig holds file ingestion configuration.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
	MaxPDFMB int      `yaml:"max_pdf_mb"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			Strategy: "recursive",
			Size:     1000,
			Overlap:  200,
		},
		Retrieve: RetrieveConfig{
			TopK:            5,
			MaxPromptLength: 6000,
			MemorySize:      5,
		},
		Embedding: EmbeddingConfig{
			Model:     "nomic-embed-text",
			BaseURL:   "http://localhost:11434",
			BatchSize: 100,
			TimeoutS:  60,
		},
		Models: ModelsConfig{
			Generation: "tinyllama:1.1b",
			Vision:     "moondream:1.8b",
			Whisper:    "whisper-1",
			OllamaURL:  "http://localhost:11434",
			WhisperURL: "http://localhost:8080",
			TimeoutS:   120,
		},
		Tabular: TabularConfig{
			RowLimit: 100,
		},
		Ingest: IngestConfig{
			Includes: []string{
				"**/*.txt", "**/*.md", "**/*.pdf", "**/*.csv",
				"**/*.png", "**/*.jpg", "**/*.jpeg",
				"**/*.mp3", "**/*.wav", "**/*.m4a",
				"**/*.mp4", "**/*.mkv", "**/*.mov",
			},
			Excludes: []string{"**/.git/**", "**/node_modules/**"},
			MaxPDFMB: 30,
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for ragchat.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragchat.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".ragchat", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the vector collection database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".ragchat", "collections.db")
}

// TabularDBPath returns the path to the session's tabular database.
func TabularDBPath(dir string) string {
	return filepath.Join(dir, ".ragchat", "tabular.db")
}

// EnsureDataDir ensures the .ragchat directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".ragchat"), 0755)
}
