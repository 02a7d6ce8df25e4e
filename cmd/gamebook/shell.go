package main

import (
	"context"
	"os"

	"github.com/aretw0/gamebook/internal/cli"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Record transitions interactively",
	Long: `Opens a prompt on the session. Every line is parsed as notation and appended;
:path, :nodes, :reset, :help and :quit are commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		env := setup(cmd)
		defer env.Close()
		fresh, _ := cmd.Flags().GetBool("fresh")
		headless, _ := cmd.Flags().GetBool("headless")

		ctx, stop := cli.NotifyContext(context.Background())
		defer stop()

		err := cli.RunShell(ctx, env, cli.ShellOptions{
			SessionID: env.Config.Session,
			Fresh:     fresh,
			Headless:  headless,
			In:        os.Stdin,
			Out:       os.Stdout,
		})
		if err != nil {
			fail(env, "running shell", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)

	shellCmd.Flags().Bool("fresh", false, "Clear the session before starting")
	shellCmd.Flags().Bool("headless", false, "No banner, prompt or styling (for pipes)")
}
