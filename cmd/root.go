package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/ytlearn/internal/config"
	"github.com/user/ytlearn/internal/logger"
	"github.com/user/ytlearn/internal/tui"
)

var (
	dataDir string
	verbose bool

	// cfg is loaded once per invocation before any command runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ytlearn",
	Short: "Summarize and search YouTube lectures",
	Long:  "A TUI app to fetch YouTube transcripts, summarize them with an LLM and search the results.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadDir(dataDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return logger.Init(cfg.Log.Development || verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Run(cfg, logger.L())
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: ~/.ytlearn)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
}
