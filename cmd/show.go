package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/ytlearn/internal/db"
)

var showTranscript bool

var showCmd = &cobra.Command{
	Use:   "show <url-or-id>",
	Short: "Show one stored video",
	Long:  "Show a stored video by the exact URL it was added with, or by its record ID.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.NewStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		r, err := store.GetByReference(args[0])
		if err == nil && r == nil {
			r, err = store.Get(args[0])
		}
		if err != nil {
			return fmt.Errorf("lookup failed: %w", err)
		}
		if r == nil {
			return fmt.Errorf("no stored video for %q", args[0])
		}

		if !showTranscript {
			r.Transcript = ""
		}

		if jsonOutput {
			data, err := json.MarshalIndent(r, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("%s\n%s\n%s\n", r.Title, r.Channel, r.Reference)
		fmt.Printf("Added %s\n\n", r.CreatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Println(r.Summary)
		if r.Keywords != "" {
			fmt.Printf("\nKeywords: %s\n", r.Keywords)
		}
		if showTranscript {
			fmt.Printf("\nTranscript:\n%s\n", r.Transcript)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVarP(&showTranscript, "transcript", "t", false, "Include the full transcript")
	showCmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	rootCmd.AddCommand(showCmd)
}
