package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/usecase"
)

var askMode string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question against the ingested content",
	Long: `Ask one question and print the grounded answer. The mode selects which
content the question is answered against: normal, text, pdf, image,
audio, video or sql.

Examples:
  ragchat ask "summarize the report" --mode pdf
  ragchat ask "total sales by region" --mode sql`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askMode, "mode", "m", "", "query mode (normal, text, pdf, image, audio, video, sql)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	mode, ok := domain.ParseMode(askMode)
	if !ok {
		return fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidConfiguration, askMode)
	}

	a, err := newApp(GetRootDir(), GetConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	answer, err := a.Ask.Ask(domain.QueryRequest{
		Mode:     mode,
		Question: strings.Join(args, " "),
	})
	if err != nil {
		return err
	}

	fmt.Println(answer.Answer)
	printGrounding(answer)
	return nil
}

// printGrounding lists which chunks the answer was based on.
func printGrounding(answer *usecase.Answer) {
	if answer.Grounding.Empty() {
		return
	}
	fmt.Printf("\nGrounded on %d chunk(s) from %s:\n", len(answer.Grounding.Chunks), answer.Source)
	for i, chunk := range answer.Grounding.Chunks {
		fmt.Printf("  %d. [%.3f] %s\n", i+1, answer.Grounding.Scores[i], excerpt(chunk.Text, 80))
	}
}

func excerpt(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
