// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/luxfi/adsim/core"
)

// ErrUnknownPolicy is returned for an unrecognized placement mode.
var ErrUnknownPolicy = errors.New("unknown placement policy")

// PolicyEnv is the read-only context a policy decides from.
type PolicyEnv struct {
	State *core.SimState
	// HighestEligibleBid is the best effective bid for the target format
	// this tick, used as the eCPM estimate before any history exists.
	HighestEligibleBid float64
}

// Policy decides how many slots to open on a tick.
type Policy interface {
	Decide(tick int, env PolicyEnv) int
}

// PolicyConfig selects and parameterizes a placement policy.
type PolicyConfig struct {
	Mode          string  `json:"mode" yaml:"mode"`
	Every         int     `json:"every" yaml:"every"`
	SlotsPerOpen  int     `json:"slots_per_open" yaml:"slots_per_open"`
	MaxSlots      int     `json:"max_slots" yaml:"max_slots"`
	ThresholdECPM float64 `json:"threshold_ecpm" yaml:"threshold_ecpm"`
	Lambda        float64 `json:"lambda" yaml:"lambda"`
}

// NewPolicy resolves a policy configuration to its strategy, failing fast
// on unknown modes or degenerate parameters.
func NewPolicy(cfg PolicyConfig) (Policy, error) {
	switch cfg.Mode {
	case "fixed":
		if cfg.Every <= 0 {
			return nil, fmt.Errorf("fixed policy: every must be positive, got %d", cfg.Every)
		}
		if cfg.SlotsPerOpen < 0 {
			return nil, fmt.Errorf("fixed policy: slots_per_open must be non-negative, got %d", cfg.SlotsPerOpen)
		}
		return &FixedPolicy{Every: cfg.Every, SlotsPerOpen: cfg.SlotsPerOpen}, nil
	case "threshold":
		if cfg.MaxSlots <= 0 {
			return nil, fmt.Errorf("threshold policy: max_slots must be positive, got %d", cfg.MaxSlots)
		}
		return &ThresholdPolicy{ThresholdECPM: cfg.ThresholdECPM, MaxSlots: cfg.MaxSlots}, nil
	case "utility":
		if cfg.MaxSlots <= 0 {
			return nil, fmt.Errorf("utility policy: max_slots must be positive, got %d", cfg.MaxSlots)
		}
		if cfg.Lambda < 0 {
			return nil, fmt.Errorf("utility policy: lambda must be non-negative, got %g", cfg.Lambda)
		}
		return &UtilityPolicy{MaxSlots: cfg.MaxSlots, Lambda: cfg.Lambda}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, cfg.Mode)
	}
}

// FixedPolicy opens SlotsPerOpen slots every Every ticks. Purely a function
// of the tick index.
type FixedPolicy struct {
	Every        int
	SlotsPerOpen int
}

func (p *FixedPolicy) Decide(tick int, env PolicyEnv) int {
	if tick%p.Every == 0 {
		return p.SlotsPerOpen
	}
	return 0
}

// ThresholdPolicy opens MaxSlots when the expected eCPM clears
// ThresholdECPM. The estimate comes from trailing revenue per impression,
// falling back to the highest eligible bid before any impression history
// exists.
type ThresholdPolicy struct {
	ThresholdECPM float64
	MaxSlots      int
}

func (p *ThresholdPolicy) Decide(tick int, env PolicyEnv) int {
	trailing := env.State.Trailing(0)
	estimate := trailing.ECPM()
	if trailing.Impressions == 0 {
		estimate = env.HighestEligibleBid
	}
	if estimate >= p.ThresholdECPM {
		return p.MaxSlots
	}
	return 0
}

// UtilityPolicy searches {0 .. MaxSlots} for the count maximizing expected
// revenue minus Lambda times projected pressure. Iteration is ascending
// with a strict > comparison, so exact ties resolve to the lowest count.
type UtilityPolicy struct {
	MaxSlots int
	Lambda   float64
}

func (p *UtilityPolicy) Decide(tick int, env PolicyEnv) int {
	trailing := env.State.Trailing(0)
	revPerSlot := trailing.RevenuePerFilledSlot()
	if trailing.SlotsFilled == 0 {
		revPerSlot = env.HighestEligibleBid / 1000
	}

	impressions := env.State.TotalImpressions
	best := 0
	bestUtility := math.Inf(-1)
	for n := 0; n <= p.MaxSlots; n++ {
		revenue := float64(n) * revPerSlot
		pressure := Pressure(impressions+n, tick)
		utility := revenue - p.Lambda*pressure
		if utility > bestUtility {
			bestUtility = utility
			best = n
		}
	}
	return best
}
