// Link command: run the bulk link creator.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sietch-tools/poilink/internal/linking"
	"github.com/sietch-tools/poilink/internal/selection"
)

var (
	linkPois       string
	linkItems      string
	linkSchematics string
	linkQuery      string
	linkType       string
	linkQuantity   int
	linkNotes      string
	linkBatchSize  int
	linkMaxRetries int
	linkCreatedBy  string
	linkDryRun     bool
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Bulk-create links between the selected POIs and entities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := selectionFromFlags(linkQuery, linkPois, linkItems, linkSchematics)
		if err != nil {
			fmt.Fprintln(os.Stderr, "link:", err)
			os.Exit(exitUserError)
		}

		state := selectionStore(sel).GetState()
		if !state.Validation.CanCreateLinks {
			fmt.Fprintln(os.Stderr, "link: invalid selection")
			for _, e := range state.Validation.Errors {
				fmt.Fprintln(os.Stderr, "  error:", e)
			}
			os.Exit(exitUserError)
		}

		if linkDryRun {
			if flagJSON {
				printJSON(map[string]any{
					"dry_run":    true,
					"stats":      state.Stats,
					"validation": state.Validation,
				})
			} else {
				fmt.Println("dry run:", selection.FormatStats(state.Stats))
				for _, w := range state.Validation.Warnings {
					fmt.Println("  warning:", w)
				}
			}
			return nil
		}

		eng, err := newEngine()
		if err != nil {
			fmt.Fprintln(os.Stderr, "link:", err)
			os.Exit(exitSysError)
		}
		defer eng.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := linking.Options{
			CreatedBy:  linkCreatedBy,
			LinkType:   linkType,
			Quantity:   linkQuantity,
			Notes:      linkNotes,
			BatchSize:  linkBatchSize,
			MaxRetries: linkMaxRetries,
		}
		if !flagJSON {
			opts.OnProgress = func(percent float64, processed, total int) {
				fmt.Printf("\r%3.0f%% (%d/%d)", percent, processed, total)
			}
		}

		result, runErr := eng.creator.CreateWithRetry(ctx, sel, opts)
		if !flagJSON {
			fmt.Println()
		}

		savePerfReport(eng, result)

		if flagJSON {
			printJSON(result)
		} else {
			printLinkResult(result)
		}

		if runErr != nil || !result.Success {
			os.Exit(exitUserError)
		}
		return nil
	},
}

// printLinkResult writes the human-readable outcome, including the
// partial-failure split and the undo hint.
func printLinkResult(result *linking.Result) {
	switch {
	case result.Success && result.Created == 0:
		fmt.Printf("Nothing to do: all %d links already exist\n", result.DuplicatesSkipped)
	case result.Success:
		fmt.Printf("Created %d links (%d duplicates skipped) in %s\n",
			result.Created, result.DuplicatesSkipped, result.Analytics.Duration.Round(time.Millisecond))
	default:
		fmt.Printf("Created %d of %d links (%d failed, %d duplicates skipped)\n",
			result.Created, result.TotalProcessed, result.Failed, result.DuplicatesSkipped)
	}

	for _, msg := range result.Errors {
		fmt.Println("  error:", msg)
	}
	if n := len(result.RetryHistory); n > 0 {
		fmt.Printf("  retries: %d\n", n)
	}
	if result.CanRetry {
		fmt.Println("  re-run the same command to retry the failed links")
	}
	if result.CanUndo {
		fmt.Printf("  undo with: poilink undo %s\n", result.OperationID)
	}
}

func init() {
	linkCmd.Flags().StringVar(&linkPois, "pois", "", "comma-separated POI IDs")
	linkCmd.Flags().StringVar(&linkItems, "items", "", "comma-separated item IDs")
	linkCmd.Flags().StringVar(&linkSchematics, "schematics", "", "comma-separated schematic IDs")
	linkCmd.Flags().StringVar(&linkQuery, "query", "", "selection as a URL query string (overrides ID flags)")
	linkCmd.Flags().StringVar(&linkType, "link-type", "", "link type (found_here, crafted_here, required_for, material_source)")
	linkCmd.Flags().IntVar(&linkQuantity, "quantity", 0, "quantity per link")
	linkCmd.Flags().StringVar(&linkNotes, "notes", "", "notes attached to every created link")
	linkCmd.Flags().IntVar(&linkBatchSize, "batch-size", 0, "links per backend batch")
	linkCmd.Flags().IntVar(&linkMaxRetries, "max-retries", 0, "automatic retry ceiling")
	linkCmd.Flags().StringVar(&linkCreatedBy, "created-by", "", "actor recorded on created links (required)")
	linkCmd.Flags().BoolVar(&linkDryRun, "dry-run", false, "validate and preview without creating links")

	linkCmd.MarkFlagRequired("created-by")
}
