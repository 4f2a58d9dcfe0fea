package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Khush-Purohit/RAG-Chatbot/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Local multimodal RAG chatbot - ask questions over your own files",
	Long: `ragchat ingests text, PDF, image, audio, video and CSV files into local
collections and answers questions grounded in them, using local Ollama
models for embedding and generation.

Example usage:
  ragchat ingest ./docs            # Ingest a directory
  ragchat ask "what is in the report?" --mode pdf
  ragchat chat                     # Interactive session with memory`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		// Endpoint and model overrides may live in a .env file.
		_ = godotenv.Load()

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		applyEnvOverrides(cfg)
		return nil
	},
}

// applyEnvOverrides lets .env or the environment replace endpoint and
// model settings without editing the config file.
func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.Models.OllamaURL = v
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("WHISPER_URL"); v != "" {
		cfg.Models.WhisperURL = v
	}
	if v := os.Getenv("GENERATION_MODEL"); v != "" {
		cfg.Models.Generation = v
	}
	if v := os.Getenv("VISION_MODEL"); v != "" {
		cfg.Models.Vision = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ragchat.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "data directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
