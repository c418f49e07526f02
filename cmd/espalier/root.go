package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "espalier",
	Short: "Espalier grows dialog trees out of conversation transcripts",
	Long:  `Espalier ingests two-party conversation transcripts, resolves what the human said into intents, and trains all conversations into a single shared dialog tree.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("tree", "tree.json", "Path to a built dialog tree artifact")
}
