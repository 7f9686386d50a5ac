package main

import (
	"fmt"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var duplicateCmd = &cobra.Command{
	Use:   "duplicate <file>",
	Short: "Duplicate a record in place",
	Long: `Copies a record and inserts the copy right after it. With --deep every
descendant of the copy gets a fresh id as well.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, target := editTarget(cmd, args[0])
		dup, err := doc.Duplicate(cmd.Context(), target)
		exitOnError("Duplicate failed", err)
		fmt.Printf("Duplicated %s %d as %d\n", target.Type, target.ID, dup.ID)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <file>",
	Short: "Delete a record and cascade",
	Long: `Removes a record. Deleting an element also removes rule events and
actions that point at it, and rules left empty by that.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, target := editTarget(cmd, args[0])
		_, err := doc.Delete(cmd.Context(), target)
		exitOnError("Delete failed", err)
		fmt.Printf("Deleted %s %d\n", target.Type, target.ID)
	},
}

var changeIDCmd = &cobra.Command{
	Use:   "change-id <file>",
	Short: "Give a record a fresh id",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, target := editTarget(cmd, args[0])
		id, err := doc.ChangeID(cmd.Context(), target)
		exitOnError("Change id failed", err)
		fmt.Printf("Renamed %s %d to %d\n", target.Type, target.ID, id)
	},
}

func editTarget(cmd *cobra.Command, path string) (*cli.Document, cli.Target) {
	sceneID, _ := cmd.Flags().GetInt64("scene")
	typ, _ := cmd.Flags().GetString("type")
	id, _ := cmd.Flags().GetInt64("id")
	deep, _ := cmd.Flags().GetBool("deep")

	rt, err := cli.ParseRecordType(typ)
	exitOnError("Invalid --type", err)
	doc, err := openDocument(cmd, path)
	exitOnError("Error opening document", err)
	return doc, cli.Target{SceneID: sceneID, Type: rt, ID: id, Deep: deep}
}

func init() {
	for _, c := range []*cobra.Command{duplicateCmd, deleteCmd, changeIDCmd} {
		c.Flags().Int64("scene", 0, "Scene id holding the record (0 targets project-level scenes and variables)")
		c.Flags().String("type", "element", "Record type: scene, element, rule, when_event, then_action or variable")
		c.Flags().Int64("id", 0, "Record id")
		_ = c.MarkFlagRequired("id")
		rootCmd.AddCommand(c)
	}
	duplicateCmd.Flags().Bool("deep", false, "Assign fresh ids to every descendant")
	deleteCmd.Flags().Bool("deep", false, "Record the delete as a subtree delete")
}
