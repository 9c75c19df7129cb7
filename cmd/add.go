package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/ytlearn/internal/db"
	"github.com/user/ytlearn/internal/indexer"
	"github.com/user/ytlearn/internal/logger"
)

var apiKey string

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a YouTube video",
	Long:  "Fetch the transcript of a YouTube video, summarize it and store the result.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reference := args[0]

		credential := apiKey
		if credential == "" {
			credential = cfg.APIKey()
		}
		if credential == "" {
			return indexer.ErrMissingCredential
		}

		fmt.Printf("Processing %s...\n", reference)
		res, err := indexer.AddVideo(cmd.Context(), cfg, reference, credential, logger.L())
		if errors.Is(err, db.ErrDuplicate) && res != nil {
			fmt.Printf("Already stored: %s\n", res.Record.Title)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to add video: %w", err)
		}

		fmt.Printf("Added: %s (%s)\n", res.Record.Title, res.Record.Channel)
		if res.Degraded() {
			fmt.Printf("Warning: %v\n", res.Summary.Err)
		}
		fmt.Println()
		fmt.Println(res.Record.Summary)
		if res.Record.Keywords != "" {
			fmt.Printf("\nKeywords: %s\n", res.Record.Keywords)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&apiKey, "api-key", "", "LLM API key (default: from config or environment)")
	rootCmd.AddCommand(addCmd)
}
