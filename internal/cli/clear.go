package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearAll bool

var clearCmd = &cobra.Command{
	Use:   "clear [collection]",
	Short: "Remove a collection and its persisted index",
	Long: `Remove one named collection, or all of them with --all.

Examples:
  ragchat clear pdf     # Drop the pdf collection
  ragchat clear --all   # Drop everything`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "remove every collection")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearAll && len(args) == 0 {
		return fmt.Errorf("name a collection or pass --all")
	}

	a, err := newApp(GetRootDir(), GetConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	if clearAll {
		names, err := a.Store.Collections()
		if err != nil {
			return err
		}
		for _, name := range names {
			if err := a.Store.Clear(name); err != nil {
				return fmt.Errorf("failed to clear %s: %w", name, err)
			}
			fmt.Printf("cleared %s\n", name)
		}
		return nil
	}

	if err := a.Store.Clear(args[0]); err != nil {
		return fmt.Errorf("failed to clear %s: %w", args[0], err)
	}
	fmt.Printf("cleared %s\n", args[0])
	return nil
}
