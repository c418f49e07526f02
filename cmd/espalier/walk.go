package main

import (
	"fmt"
	"os"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/spf13/cobra"
)

// walkCmd represents the walk command
var walkCmd = &cobra.Command{
	Use:   "walk",
	Short: "Walk the dialog tree interactively",
	Long: `Steps through a built tree as a conversation: agent turns are printed
and human turns are chosen from the wording discovered in the transcripts.`,
	Run: func(cmd *cobra.Command, args []string) {
		treePath, _ := cmd.Flags().GetString("tree")
		if !cmd.Flags().Changed("tree") && len(args) > 0 {
			treePath = args[0]
		}
		headless, _ := cmd.Flags().GetBool("headless")

		if err := cli.Walk(cli.WalkOptions{TreePath: treePath, Headless: headless}); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(walkCmd)

	walkCmd.Flags().Bool("headless", false, "Follow the dialog without prompting, stopping at the first branch")
}
