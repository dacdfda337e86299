// Undo command: reverse a recorded bulk create.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var undoCmd = &cobra.Command{
	Use:   "undo <operation-id>",
	Short: "Delete the links created by a recorded operation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			fmt.Fprintln(os.Stderr, "undo:", err)
			os.Exit(exitSysError)
		}
		defer eng.close()

		result, err := eng.ledger.Undo(cmd.Context(), eng.backend, args[0])

		if flagJSON {
			printJSON(result)
			if err != nil || !result.Success {
				os.Exit(exitUserError)
			}
			return nil
		}

		if err != nil {
			fmt.Fprintln(os.Stderr, "undo:", err)
			os.Exit(exitUserError)
		}

		if result.Success {
			fmt.Printf("Undone: deleted %d links\n", result.UndoneCount)
			return nil
		}

		fmt.Printf("Partially undone: deleted %d links, %d could not be deleted\n",
			result.UndoneCount, len(result.FailedIDs))
		for _, msg := range result.Errors {
			fmt.Println("  error:", msg)
		}
		fmt.Println("  the operation stays undoable; run undo again to finish")
		os.Exit(exitUserError)
		return nil
	},
}
