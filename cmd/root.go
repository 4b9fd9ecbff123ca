package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rubrix",
	Short: "Scoring engine for free-text exercise submissions",
	Long: "Rubrix grades free-text submissions by combining an LLM judgment, " +
		"rubric validation, and embedding similarity into one bounded score, " +
		"with integrity checks and a reference-answer bank.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides RUBRIX_DB env var)")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(exerciseCmd)
	rootCmd.AddCommand(referencesCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
