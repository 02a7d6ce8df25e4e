package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/gamebook"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of gamebook",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gamebook version %s\n", strings.TrimSpace(gamebook.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
