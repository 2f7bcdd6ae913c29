package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "access-load",
		Short: "Load and smoke testing tool for the access decision API",
		Long: `access-load drives the decision API with authenticated traffic.

"smoke" verifies /health and one authenticated graph-filter read.
"run" executes a weighted load profile against /access/api/check and
writes a JSON latency report with per-endpoint p50/p95/p99, error and
denied counts, and a p99 threshold verdict.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newSmokeCmd())
	cmd.AddCommand(newRunCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
