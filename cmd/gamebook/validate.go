package main

import (
	"fmt"
	"os"

	"github.com/aretw0/gamebook/internal/presentation/tui"
	"github.com/aretw0/gamebook/pkg/notation"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a notation file without touching any session",
	Long:  `Parses every line of the file and reports malformed lines and dropped markers. Exits 1 when any line is malformed.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)

		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("Error reading file: %v\n", err)
			os.Exit(1)
		}

		parser := notation.NewParser(notation.WithTagInference(cfg.Parser.TagInference))
		batch := parser.ParseBatch(string(data), "")
		tui.NewPrinter(os.Stdout).ParseReport(batch)

		if len(batch.Errors) > 0 {
			os.Exit(1)
		}
		fmt.Println("Notation is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
