package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
	"github.com/Khush-Purohit/RAG-Chatbot/internal/usecase"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question session with conversation memory",
	Long: `Start an interactive session. The last few exchanges are remembered and
threaded into each prompt.

In-session commands:
  /mode <m>   switch mode (normal, text, pdf, image, audio, video, sql)
  /clear      forget the conversation so far
  /exit       leave the session`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(GetRootDir(), GetConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	memory := usecase.NewMemory(GetConfig().Retrieve.MemorySize)
	mode := domain.ModeNormal

	fmt.Printf("ragchat interactive session (mode: %s). Type /exit to leave.\n", mode)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("[%s] > ", mode)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, err := handleChatCommand(line, &mode, memory)
			if err != nil {
				fmt.Printf("error: %v\n", err)
			}
			if done {
				break
			}
			continue
		}

		answer, err := a.Ask.Ask(domain.QueryRequest{
			Mode:     mode,
			Question: line,
			History:  memory.History(),
		})
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(answer.Answer)
		memory.Add(line, answer.Answer)
	}
	return scanner.Err()
}

func handleChatCommand(line string, mode *domain.Mode, memory *usecase.Memory) (done bool, err error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/exit", "/quit":
		return true, nil
	case "/clear":
		memory.Clear()
		fmt.Println("conversation cleared")
		return false, nil
	case "/mode":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: /mode <normal|text|pdf|image|audio|video|sql>")
		}
		m, ok := domain.ParseMode(fields[1])
		if !ok {
			return false, fmt.Errorf("unknown mode %q", fields[1])
		}
		*mode = m
		fmt.Printf("mode set to %s\n", m)
		return false, nil
	}
	return false, fmt.Errorf("unknown command %s", fields[0])
}
