package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the dialog tree as a readable outline",
	Long:  `Reads a built tree artifact and prints it as a Markdown outline, rendered for the terminal when stdout is a TTY.`,
	Run: func(cmd *cobra.Command, args []string) {
		treePath, _ := cmd.Flags().GetString("tree")
		if !cmd.Flags().Changed("tree") && len(args) > 0 {
			treePath = args[0]
		}

		root, err := cli.LoadTree(treePath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		output := tui.Outline(root)
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if rendered, err := tui.NewRenderer()(output); err == nil {
				output = rendered
			}
		}
		fmt.Print(output)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
