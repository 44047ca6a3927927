// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luxfi/adsim/core"
	"github.com/luxfi/adsim/engine"
	"github.com/luxfi/adsim/pkg/analytics"
	"github.com/luxfi/adsim/pkg/config"
	"github.com/luxfi/adsim/pkg/log"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		seed       int64
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation to completion and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.NewWithLevel(logLevel)
			defer logger.Sync()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}

			events, err := engine.RunBatch(cfg, logger)
			if err != nil {
				return err
			}

			if outPath != "" {
				raw, err := json.MarshalIndent(events, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(outPath, raw, 0o644); err != nil {
					return fmt.Errorf("write event log: %w", err)
				}
			}

			report := analytics.Build(events)
			printReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to simulation config YAML")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Override the configured seed")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the full event log as JSON")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func printReport(cmd *cobra.Command, r *analytics.Report) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "ticks:        %d\n", r.Ticks)
	fmt.Fprintf(w, "slots opened: %d  filled: %d  (fill rate %.3f)\n", r.SlotsOpened, r.SlotsFilled, r.FillRate)
	fmt.Fprintf(w, "impressions:  %d  clicks: %d  (ctr %.4f)\n", r.Impressions, r.Clicks, r.ClickRate)
	fmt.Fprintf(w, "revenue:      %s  (ecpm %s)\n", r.Revenue, r.ECPM)
	for _, adv := range r.Advertisers {
		fmt.Fprintf(w, "  %-16s wins=%d imps=%d clicks=%d spend=%s\n",
			adv.ID, adv.Wins, adv.Impressions, adv.Clicks, adv.Spend)
	}
	for _, reason := range []core.Reason{
		core.ReasonFilled, core.ReasonNoSlot, core.ReasonNoEligible,
		core.ReasonBelowFloor, core.ReasonBudgetExhausted,
	} {
		if n := r.Outcomes[reason]; n > 0 {
			fmt.Fprintf(w, "  outcome %-18s %d\n", reason, n)
		}
	}
}
