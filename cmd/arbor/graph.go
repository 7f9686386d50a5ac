package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export a scene as a Mermaid diagram",
	Long:  `Outputs a Mermaid diagram (graph TD) of a scene: its element tree, its rules and the elements each rule points at.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sceneID, _ := cmd.Flags().GetInt64("scene")
		highlight, _ := cmd.Flags().GetInt64Slice("highlight")

		doc, err := openDocument(cmd, args[0])
		exitOnError("Error opening document", err)

		out, err := doc.Graph(cmd.Context(), sceneID, highlight)
		exitOnError("Error generating graph", err)
		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Int64("scene", 0, "Scene id (defaults to the first scene)")
	graphCmd.Flags().Int64Slice("highlight", nil, "Element ids to highlight")
}
