// Package main provides the xbst console, a step by step binary search
// tree playground.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// Set by -ldflags "-X main.version=...".
var version = "dev"

const stopTimeout = 10 * time.Second

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Step through insertions, deletions and searches on a binary search tree",
		Long: `xbst is an interactive binary search tree console.

Operations are queued as tasks and either run to completion at once or,
with tracing on, advance one step per "step" command so every visited
node can be followed. Type "help" in the console for the commands.

The configuration is read from --config, or .xbst.yaml in the current or
home directory, and XBST_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), fx.New(appOptions(configPath, os.Stdin, os.Stdout)...))
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default .xbst.yaml)")
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, version)
		},
	}
}

// run blocks until the console quits or a signal arrives.
func run(ctx context.Context, app *fx.App) error {
	if err := app.Err(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	<-app.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return app.Stop(stopCtx)
}
