package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <file>",
	Short: "Upgrade a document to the latest version",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := openDocument(cmd, args[0])
		exitOnError("Error opening document", err)

		applied, err := doc.Migrate(cmd.Context())
		exitOnError("Migration failed", err)
		if len(applied) == 0 {
			fmt.Println("Document is up to date")
			return
		}
		fmt.Printf("Applied migrations %v\n", applied)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
