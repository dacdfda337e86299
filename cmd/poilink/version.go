// Version command for the poilink CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sietch-tools/poilink/pkg/poilink"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the poilink version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("poilink", poilink.Version)
	},
}
