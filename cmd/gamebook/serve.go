package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/gamebook/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes sessions over a JSON API with Server-Sent Events and Prometheus metrics.
With --watch the given CSV file is imported into the session on start and again
whenever it changes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		debug, _ := cmd.Flags().GetBool("debug")
		addr, _ := cmd.Flags().GetString("addr")
		watch, _ := cmd.Flags().GetString("watch")

		ctx, stop := cli.NotifyContext(context.Background())
		defer stop()

		err := cli.Serve(ctx, cfg, cli.ServeOptions{
			Addr:         addr,
			Debug:        debug,
			WatchPath:    watch,
			WatchSession: cfg.Session,
			Out:          os.Stdout,
		})
		if err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default from config, :8080)")
	serveCmd.Flags().String("watch", "", "CSV file to import into the session and reload on change")
}
