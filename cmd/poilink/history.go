// History command group: the operation ledger behind undo.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sietch-tools/poilink/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the bulk-linking operation history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded operations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			fmt.Fprintln(os.Stderr, "history list:", err)
			os.Exit(exitSysError)
		}
		defer eng.close()

		history := eng.ledger.History()

		if flagJSON {
			printJSON(history)
			return nil
		}

		if len(history) == 0 {
			fmt.Println("no operations recorded")
			return nil
		}
		for _, op := range history {
			fmt.Println(describeOperation(op))
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the operation history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			fmt.Fprintln(os.Stderr, "history clear:", err)
			os.Exit(exitSysError)
		}
		defer eng.close()

		if err := eng.ledger.Clear(); err != nil {
			fmt.Fprintln(os.Stderr, "history clear:", err)
			os.Exit(exitSysError)
		}

		if flagJSON {
			printJSON(map[string]bool{"cleared": true})
		} else {
			fmt.Println("History cleared")
		}
		return nil
	},
}

// describeOperation formats one ledger entry for human-readable output.
func describeOperation(op types.Operation) string {
	line := fmt.Sprintf("%s  %s  %-7s %-7s %d POIs, %d items, %d schematics, %+d links (%s)",
		op.ID, op.Timestamp.Format("2006-01-02 15:04:05"), op.Type, op.Status,
		op.Details.PoiCount, op.Details.ItemCount, op.Details.SchematicCount,
		op.Details.LinksCreated, op.Details.LinkType)
	if op.CanUndo {
		line += fmt.Sprintf("  [undoable until %s]", op.UndoExpiry.Format(time.Kitchen))
	}
	return line
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
}
