// ABOUTME: CLI command printing the healthhub version.
// ABOUTME: Version is overridable at build time via ldflags.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the healthhub version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("healthhub %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
