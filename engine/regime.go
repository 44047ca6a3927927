// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

// Regime is an exogenous market shock: time-scheduled multipliers applied
// to bids, click rates, and the floor. Multipliers are applied as derived
// values during a tick's auctions and never written into advertiser state.
type Regime struct {
	StartTick            int     `json:"start_tick"`
	BidMultiplier        float64 `json:"bid_multiplier"`
	ClickRateMultiplier  float64 `json:"click_rate_multiplier"`
	FloorMultiplierDelta float64 `json:"floor_multiplier_delta"`
}

// DefaultRegime is the neutral shock in effect before the first scheduled
// regime or with an empty schedule.
var DefaultRegime = Regime{BidMultiplier: 1, ClickRateMultiplier: 1, FloorMultiplierDelta: 0}

// Schedule is an ordered list of regimes by start tick.
type Schedule []Regime

// Active returns the last regime whose StartTick <= tick, or DefaultRegime.
func (s Schedule) Active(tick int) Regime {
	active := DefaultRegime
	for _, r := range s {
		if r.StartTick > tick {
			break
		}
		active = r
	}
	return active
}
