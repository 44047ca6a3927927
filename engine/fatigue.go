// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine drives the tick-by-tick ad-auction simulation: click-rate
// prediction, ad fatigue, placement policies, regime schedules, and the
// runner that ties them together.
package engine

import "math"

// Pressure is the running average of impressions per elapsed tick. It is a
// plain ratio rather than a decayed window, which keeps the fatigue model
// auditable.
func Pressure(impressions, tick int) float64 {
	return float64(impressions) / math.Max(1, float64(tick))
}

// FatigueMultiplier converts ad pressure into a multiplicative click-rate
// decay: exp(-strength * pressure). Strictly decreasing in pressure and
// bounded in (0, 1] for non-negative inputs.
func FatigueMultiplier(pressure, strength float64) float64 {
	return math.Exp(-strength * pressure)
}
