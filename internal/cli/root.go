package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Personal knowledge base with memory decay",
	Long:  "Recall stores free-form notes, summarizes and tags them with a language model, decays each note's confidence over time, and answers questions from the notes you kept.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(decayCmd)
	rootCmd.AddCommand(queryCmd)
}
