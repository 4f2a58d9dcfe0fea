package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Ingest files into the local collections",
	Long: `Ingest a file or a directory of files. The modality is detected from
the file extension: text, PDF, image, audio, video or CSV. Re-ingesting
identical content is a no-op.

Examples:
  ragchat ingest ./docs        # Ingest a directory
  ragchat ingest report.pdf    # Ingest a single file`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	a, err := newApp(GetRootDir(), GetConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	var result *usecase.IngestResult
	if info.IsDir() {
		fmt.Printf("Scanning %s...\n", path)

		var bar *progressbar.ProgressBar
		progress := func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionEnableColorCodes(true),
					progressbar.OptionShowBytes(false),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
					progressbar.OptionOnCompletion(func() {
						fmt.Println()
					}),
				)
			}
			bar.Set(done)
		}

		result, err = a.Ingest.IngestDir(path, progress)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
	} else {
		result, err = a.Ingest.IngestFile(path)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Files ingested: %d\n", result.FilesIngested)
	fmt.Printf("  Files skipped:  %d\n", result.FilesSkipped)
	fmt.Printf("  Chunks created: %d\n", result.ChunksCreated)

	if len(result.Diagnostics) > 0 {
		fmt.Printf("\nNotes:\n")
		for _, d := range result.Diagnostics {
			fmt.Printf("  - %s\n", d)
		}
	}
	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}
