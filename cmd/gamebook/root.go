package main

import (
	"fmt"
	"os"

	"github.com/aretw0/gamebook/internal/cli"
	"github.com/aretw0/gamebook/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gamebook",
	Short: "gamebook maps the routes of a choose-your-own-adventure book",
	Long: `gamebook records the transitions you take while reading a gamebook,
classifies every section (start, end, dead end, required, unexplored) and finds
the shortest route from the start to the end through every required section.

Transitions are written as "from,rejected...,chosen" with optional markers:
* secret, x dead end, t end, + required, s start.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default gamebook.yaml when present)")
	rootCmd.PersistentFlags().String("dir", "", "Data directory for file, sqlite and badger stores")
	rootCmd.PersistentFlags().String("driver", "", "Store driver: file, memory, redis, sqlite or badger")
	rootCmd.PersistentFlags().StringP("session", "s", "", "Session to operate on")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
}

// loadConfig reads the config file and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) *config.Config {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if cmd.Flags().Changed("dir") {
		cfg.Dir, _ = cmd.Flags().GetString("dir")
	}
	if cmd.Flags().Changed("driver") {
		cfg.Store.Driver, _ = cmd.Flags().GetString("driver")
	}
	if cmd.Flags().Changed("session") {
		cfg.Session, _ = cmd.Flags().GetString("session")
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// setup builds the command environment; callers must Close it.
func setup(cmd *cobra.Command) *cli.Env {
	cfg := loadConfig(cmd)
	debug, _ := cmd.Flags().GetBool("debug")

	env, err := cli.Setup(cfg, debug)
	if err != nil {
		fmt.Printf("Error initializing gamebook: %v\n", err)
		os.Exit(1)
	}
	return env
}

// fail prints the error the way every command does and exits.
func fail(env *cli.Env, what string, err error) {
	fmt.Printf("Error %s: %v\n", what, err)
	if env != nil {
		_ = env.Close()
	}
	os.Exit(1)
}
