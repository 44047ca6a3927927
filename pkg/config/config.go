// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads simulation configuration from YAML and converts it
// into an engine.Config. Validation is fail-fast: a file that parses but
// describes a degenerate run is rejected at load time.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/luxfi/adsim/auction"
	"github.com/luxfi/adsim/core"
	"github.com/luxfi/adsim/engine"
)

// File is the on-disk simulation configuration.
type File struct {
	Horizon int   `yaml:"horizon"`
	Seed    int64 `yaml:"seed"`

	Policy  engine.PolicyConfig `yaml:"policy"`
	Pricing PricingSection      `yaml:"pricing"`
	Fatigue FatigueSection      `yaml:"fatigue"`

	FloorMultiplier float64         `yaml:"floor_multiplier"`
	Regimes         []RegimeSection `yaml:"regimes"`

	Advertisers []AdvertiserSection `yaml:"advertisers"`
	Slots       []SlotSection       `yaml:"slots"`
}

type PricingSection struct {
	Mode string `yaml:"mode"`
}

type FatigueSection struct {
	Strength           float64 `yaml:"strength"`
	BaselineNoise      float64 `yaml:"baseline_noise"`
	ViewabilityEnabled bool    `yaml:"viewability_enabled"`
}

type RegimeSection struct {
	StartTick            int     `yaml:"start_tick"`
	BidMultiplier        float64 `yaml:"bid_multiplier"`
	ClickRateMultiplier  float64 `yaml:"click_rate_multiplier"`
	FloorMultiplierDelta float64 `yaml:"floor_multiplier_delta"`
}

// AdvertiserSection is one advertiser record. Omitted budgets mean
// unlimited.
type AdvertiserSection struct {
	ID            string   `yaml:"id"`
	BidCPM        float64  `yaml:"bid_cpm"`
	Quality       float64  `yaml:"quality"`
	BaseClickRate float64  `yaml:"base_click_rate"`
	Formats       []string `yaml:"formats"`
	TotalBudget   *float64 `yaml:"total_budget"`
	DailyBudget   *float64 `yaml:"daily_budget"`
}

type SlotSection struct {
	ID          string  `yaml:"id"`
	Format      string  `yaml:"format"`
	FloorCPM    float64 `yaml:"floor_cpm"`
	Viewability float64 `yaml:"viewability"`
}

// Load reads and validates a YAML configuration file.
func Load(path string) (engine.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return engine.Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse builds a validated engine.Config from YAML bytes.
func Parse(raw []byte) (engine.Config, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return engine.Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg, err := f.Build()
	if err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}

// Build converts the file into an engine.Config, applying defaults and
// validating.
func (f File) Build() (engine.Config, error) {
	floorMultiplier := f.FloorMultiplier
	if floorMultiplier == 0 {
		floorMultiplier = 1
	}

	advertisers := make([]*core.Advertiser, 0, len(f.Advertisers))
	seen := make(map[string]bool, len(f.Advertisers))
	for _, a := range f.Advertisers {
		if a.ID == "" {
			return engine.Config{}, fmt.Errorf("advertiser with empty id")
		}
		if seen[a.ID] {
			return engine.Config{}, fmt.Errorf("duplicate advertiser id %q", a.ID)
		}
		seen[a.ID] = true
		advertisers = append(advertisers, core.NewAdvertiser(
			a.ID, a.BidCPM, a.Quality, a.BaseClickRate, a.Formats,
			budgetOf(a.TotalBudget), budgetOf(a.DailyBudget),
		))
	}

	slots := make([]core.Slot, 0, len(f.Slots))
	for _, s := range f.Slots {
		if s.ID == "" {
			return engine.Config{}, fmt.Errorf("slot with empty id")
		}
		slots = append(slots, core.Slot{
			ID:          s.ID,
			Format:      s.Format,
			FloorCPM:    s.FloorCPM,
			Viewability: s.Viewability,
		})
	}

	regimes := make(engine.Schedule, 0, len(f.Regimes))
	last := -1
	for _, r := range f.Regimes {
		if r.StartTick < last {
			return engine.Config{}, fmt.Errorf("regimes must be ordered by start_tick, %d after %d", r.StartTick, last)
		}
		last = r.StartTick
		regimes = append(regimes, engine.Regime{
			StartTick:            r.StartTick,
			BidMultiplier:        r.BidMultiplier,
			ClickRateMultiplier:  r.ClickRateMultiplier,
			FloorMultiplierDelta: r.FloorMultiplierDelta,
		})
	}

	cfg := engine.Config{
		Horizon:            f.Horizon,
		Seed:               f.Seed,
		Policy:             f.Policy,
		PricingMode:        f.Pricing.Mode,
		FatigueStrength:    f.Fatigue.Strength,
		BaselineNoise:      f.Fatigue.BaselineNoise,
		ViewabilityEnabled: f.Fatigue.ViewabilityEnabled,
		FloorMultiplier:    floorMultiplier,
		Regimes:            regimes,
		Advertisers:        advertisers,
		Slots:              slots,
	}
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	// Resolve strategy modes now so misconfiguration fails at load, not
	// mid-run.
	if _, err := engine.NewPolicy(cfg.Policy); err != nil {
		return engine.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := auction.NewPricer(cfg.PricingMode); err != nil {
		return engine.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func budgetOf(amount *float64) core.Budget {
	if amount == nil {
		return core.UnlimitedBudget()
	}
	return core.LimitedBudget(*amount)
}
