// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// adsim runs deterministic ad-auction simulations: batch runs to a JSON
// event log, or a live server streaming ticks to dashboard clients.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

var logLevel string

func main() {
	root := &cobra.Command{
		Use:     "adsim",
		Short:   "Deterministic ad-auction simulator",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
