// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/luxfi/adsim/core"
	"github.com/luxfi/adsim/pkg/rng"
)

// Noise draws one uniform perturbation in [-baseline, +baseline].
func Noise(r *rng.RNG, baseline float64) float64 {
	return (r.Next()*2 - 1) * baseline
}

// PredictClickRate estimates the click-through rate for an (advertiser,
// slot) pair:
//
//	clamp(base * user * viewability * fatigue + noise, 0, 1)
//
// The viewability term applies only when viewability modeling is enabled.
// No side effects; the caller draws noise once per evaluation.
func PredictClickRate(adv *core.Advertiser, slot core.Slot, userMultiplier, fatigueMultiplier, noise float64, viewabilityEnabled bool) float64 {
	view := 1.0
	if viewabilityEnabled {
		view = slot.Viewability
	}
	rate := adv.BaseClickRate*userMultiplier*view*fatigueMultiplier + noise
	if rate < 0 {
		return 0
	}
	if rate > 1 {
		return 1
	}
	return rate
}
