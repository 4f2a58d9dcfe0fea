package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-collection chunk counts and the loaded dataset",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := newApp(GetRootDir(), GetConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	names, err := a.Store.Collections()
	if err != nil {
		return err
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Println("No collections yet.")
	} else {
		fmt.Println("Collections:")
		total := 0
		for _, name := range names {
			count, err := a.Store.Count(name)
			if err != nil {
				return err
			}
			fmt.Printf("  %-20s %d chunk(s)\n", name, count)
			total += count
		}
		fmt.Printf("  %-20s %d chunk(s)\n", "total", total)
	}

	schema, ok, err := a.Tabular.Schema()
	if err != nil {
		return err
	}
	if ok {
		fmt.Printf("\nDataset: table %s, %d row(s), %d column(s)\n",
			schema.Table, schema.RowCount, len(schema.Columns))
	} else {
		fmt.Println("\nNo dataset loaded.")
	}
	return nil
}
