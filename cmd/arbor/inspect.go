package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print an outline of a project document",
	Long:  `Renders variables, scenes, element trees and rules of a document as markdown. Output is styled when stdout is a terminal.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := openDocument(cmd, args[0])
		exitOnError("Error opening document", err)

		plain, _ := cmd.Flags().GetBool("plain")
		styled := !plain && term.IsTerminal(int(os.Stdout.Fd()))
		exitOnError("Error inspecting document", doc.Inspect(cmd.Context(), os.Stdout, styled))
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("plain", false, "Print raw markdown even on a terminal")
}
