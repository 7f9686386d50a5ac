package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new <file>",
	Short: "Create a new project document",
	Long:  `Creates a migrated, empty project document. With --demo a sample scene is added.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		demo, _ := cmd.Flags().GetBool("demo")
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}

		doc, err := openDocument(cmd, args[0])
		exitOnError("Error opening document", err)

		var b *dsl.Builder
		if demo {
			b = cli.Starter()
		}
		exitOnError("Create failed", doc.Create(cmd.Context(), name, b))
		fmt.Printf("Created %s\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().String("name", "", "Project name (defaults to the file name)")
	newCmd.Flags().Bool("demo", false, "Add a sample scene")
}
