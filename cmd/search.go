package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/ytlearn/internal/db"
)

var (
	jsonOutput      bool
	plaintextOutput bool
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search stored videos",
	Long:  "Case-insensitive substring search over titles, summaries and keywords, newest first.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := strings.Join(args, " ")

		store, err := db.NewStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		results, err := store.Search(term)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		return output(results)
	},
}

func output(results []db.VideoRecord) error {
	if jsonOutput {
		return outputJSON(results)
	}
	if plaintextOutput {
		return outputPlaintext(results)
	}
	return outputDefault(results)
}

func outputJSON(results []db.VideoRecord) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func outputPlaintext(results []db.VideoRecord) error {
	for _, r := range results {
		fmt.Printf("%s\t%s\t%s\n", r.CreatedAt.Format("2006-01-02"), r.Title, r.Reference)
	}
	return nil
}

func outputDefault(results []db.VideoRecord) error {
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%d. %s [%s]\n   %s\n", i+1, r.Title, r.Channel, r.Reference)
		if r.Keywords != "" {
			fmt.Printf("   %s\n", truncate(r.Keywords, 100))
		}
		fmt.Println()
	}
	return nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func init() {
	searchCmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	searchCmd.Flags().BoolVarP(&plaintextOutput, "plaintext", "p", false, "Output as plaintext")
	rootCmd.AddCommand(searchCmd)
}
