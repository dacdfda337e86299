// Links command group: inspect and delete persisted links.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sietch-tools/poilink/pkg/types"
)

var (
	listPoi       string
	listItem      string
	listSchematic string
	listLinkType  string
	listCreatedBy string
	listLimit     int
	listOffset    int
)

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Inspect and delete persisted links",
}

var linksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List links, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "links list:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		filter := types.Filter{}
		for key, val := range map[string]string{
			"poi_id":       listPoi,
			"item_id":      listItem,
			"schematic_id": listSchematic,
			"link_type":    listLinkType,
			"created_by":   listCreatedBy,
		} {
			if val != "" {
				filter[key] = val
			}
		}
		if listLimit > 0 {
			filter["limit"] = listLimit
		}
		if listOffset > 0 {
			filter["offset"] = listOffset
		}

		links, err := backend.FetchLinks(cmd.Context(), filter)
		if err != nil {
			fmt.Fprintln(os.Stderr, "links list:", err)
			os.Exit(exitSysError)
		}

		if flagJSON {
			printJSON(links)
			return nil
		}

		if len(links) == 0 {
			fmt.Println("no links")
			return nil
		}
		for _, link := range links {
			fmt.Println(describeLink(link))
		}
		return nil
	},
}

var linksDeleteCmd = &cobra.Command{
	Use:   "delete <link-id>...",
	Short: "Delete links by ID",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "links delete:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		deleted, missing, err := backend.DeleteLinks(cmd.Context(), args)
		if err != nil {
			fmt.Fprintln(os.Stderr, "links delete:", err)
			os.Exit(exitSysError)
		}

		if flagJSON {
			printJSON(map[string]any{
				"deleted": deleted,
				"missing": missing,
			})
		} else {
			fmt.Printf("Deleted %d links\n", len(deleted))
			for _, id := range missing {
				fmt.Println("  not found:", id)
			}
		}

		if len(missing) > 0 {
			os.Exit(exitUserError)
		}
		return nil
	},
}

func init() {
	linksListCmd.Flags().StringVar(&listPoi, "poi", "", "filter by POI ID")
	linksListCmd.Flags().StringVar(&listItem, "item", "", "filter by item ID")
	linksListCmd.Flags().StringVar(&listSchematic, "schematic", "", "filter by schematic ID")
	linksListCmd.Flags().StringVar(&listLinkType, "link-type", "", "filter by link type")
	linksListCmd.Flags().StringVar(&listCreatedBy, "created-by", "", "filter by creating actor")
	linksListCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum links to return")
	linksListCmd.Flags().IntVar(&listOffset, "offset", 0, "links to skip")

	linksCmd.AddCommand(linksListCmd)
	linksCmd.AddCommand(linksDeleteCmd)
}
