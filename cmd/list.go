package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/ytlearn/internal/db"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored videos, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.NewStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		results, err := store.List(listLimit)
		if err != nil {
			return fmt.Errorf("list failed: %w", err)
		}

		return output(results)
	},
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", db.DefaultListLimit, "Maximum number of videos")
	listCmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	listCmd.Flags().BoolVarP(&plaintextOutput, "plaintext", "p", false, "Output as plaintext")
	rootCmd.AddCommand(listCmd)
}
