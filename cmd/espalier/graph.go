package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the dialog tree visualization",
	Long:  `Reads a built tree artifact and outputs a Mermaid diagram (graph TD) representing the dialog structure.`,
	Run: func(cmd *cobra.Command, args []string) {
		treePath, _ := cmd.Flags().GetString("tree")
		if !cmd.Flags().Changed("tree") && len(args) > 0 {
			treePath = args[0]
		}
		outputPath, _ := cmd.Flags().GetString("output")
		pathFlag, _ := cmd.Flags().GetString("path")

		root, err := cli.LoadTree(treePath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		var overlay *graph.Overlay
		if cmd.Flags().Changed("path") {
			overlay = &graph.Overlay{Path: strings.Split(pathFlag, ",")}
		}

		// Generate and print Mermaid graph
		output := graph.GenerateMermaid(root, overlay)
		if outputPath != "" {
			if err := os.WriteFile(outputPath, []byte(output), 0o644); err != nil {
				fmt.Printf("Error writing diagram: %v\n", err)
				os.Exit(1)
			}
			return
		}
		fmt.Print(output)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringP("output", "o", "", "Write the diagram to a file instead of stdout")
	graphCmd.Flags().String("path", "", "Comma-separated intent path to highlight, empty segments follow agent turns")
}
