package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/gamebook/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [line]...",
	Short: "Append transitions to the session",
	Long: `Parses each argument as one notation line and appends the resulting edges.
Without arguments the lines are read from standard input; blank lines and lines
starting with '#' are skipped. Malformed lines are reported and never stop the batch.`,
	Example: `  gamebook add "1,2+,3" "3,7,12t"
  gamebook add "14,22 | fought the troll"
  cat trail.txt | gamebook add`,
	Run: func(cmd *cobra.Command, args []string) {
		env := setup(cmd)
		defer env.Close()
		tag, _ := cmd.Flags().GetString("tag")

		text := strings.Join(args, "\n")
		if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				fail(env, "reading input", err)
			}
			text = string(data)
		}

		batch, err := env.Engine.AddLines(cmd.Context(), env.Config.Session, text, tag)
		if err != nil {
			fail(env, "adding lines", err)
		}
		tui.NewPrinter(os.Stdout).ParseReport(batch)

		if batch.Lines > 0 && len(batch.Errors) == batch.Lines {
			_ = env.Close()
			os.Exit(1)
		}
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Replace the session with an edge table",
	Long:  `Reads a from,to,chosen,tag,is_secret table ('-' for standard input) and replaces the session log with it.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := setup(cmd)
		defer env.Close()

		var in io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				fail(env, "opening file", err)
			}
			defer f.Close()
			in = f
		}

		res, err := env.Engine.Import(cmd.Context(), env.Config.Session, in)
		if err != nil {
			fail(env, "importing", err)
		}
		tui.NewPrinter(os.Stdout).ImportReport(res)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file.csv]",
	Short: "Write the session as an edge table",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := setup(cmd)
		defer env.Close()

		var out io.Writer = os.Stdout
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Create(args[0])
			if err != nil {
				fail(env, "creating file", err)
			}
			defer f.Close()
			out = f
		}

		if err := env.Engine.Export(cmd.Context(), env.Config.Session, out); err != nil {
			fail(env, "exporting", err)
		}
		if out != os.Stdout {
			fmt.Printf("Exported session '%s' to %s\n", env.Config.Session, args[0])
		}
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear every edge and required mark of the session",
	Run: func(cmd *cobra.Command, args []string) {
		env := setup(cmd)
		defer env.Close()

		if err := env.Engine.Reset(cmd.Context(), env.Config.Session); err != nil {
			fail(env, "resetting session", err)
		}
		fmt.Printf("Session '%s' cleared\n", env.Config.Session)
	},
}

func init() {
	rootCmd.AddCommand(addCmd, importCmd, exportCmd, resetCmd)

	addCmd.Flags().StringP("tag", "t", "", "Free-text tag for the chosen edge of every line")
}
