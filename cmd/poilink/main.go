// Entry point for the poilink CLI.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "poilink:", err)
		os.Exit(exitUserError)
	}
}
