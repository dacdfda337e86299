// Plan command: preview what a bulk link run would attempt.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sietch-tools/poilink/internal/selection"
)

var (
	planPois       string
	planItems      string
	planSchematics string
	planQuery      string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the link candidates and validation for a selection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := selectionFromFlags(planQuery, planPois, planItems, planSchematics)
		if err != nil {
			fmt.Fprintln(os.Stderr, "plan:", err)
			os.Exit(exitUserError)
		}

		store := selectionStore(sel)
		state := store.GetState()

		query, encodeErr := selection.EncodeParams(state)

		if flagJSON {
			out := map[string]any{
				"selection":  state,
				"stats":      state.Stats,
				"validation": state.Validation,
			}
			if encodeErr == nil {
				out["query"] = query
			}
			printJSON(out)
			if !state.Validation.CanCreateLinks {
				os.Exit(exitUserError)
			}
			return nil
		}

		fmt.Println(selection.FormatStats(state.Stats))
		for _, e := range state.Validation.Errors {
			fmt.Println("  error:", e)
		}
		for _, w := range state.Validation.Warnings {
			fmt.Println("  warning:", w)
		}
		if encodeErr == nil && query != "" {
			fmt.Println("  query:", query)
		}

		if !state.Validation.CanCreateLinks {
			os.Exit(exitUserError)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planPois, "pois", "", "comma-separated POI IDs")
	planCmd.Flags().StringVar(&planItems, "items", "", "comma-separated item IDs")
	planCmd.Flags().StringVar(&planSchematics, "schematics", "", "comma-separated schematic IDs")
	planCmd.Flags().StringVar(&planQuery, "query", "", "selection as a URL query string (overrides ID flags)")
}
