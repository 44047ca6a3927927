// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

// Reason is the enumerated outcome of a slot (or of a whole no-op tick).
// These are normal per-tick outcomes, not errors.
type Reason string

const (
	// ReasonFilled marks a slot won above floor with budget to spare.
	ReasonFilled Reason = "filled"
	// ReasonNoSlot marks a tick on which the policy opened zero slots.
	ReasonNoSlot Reason = "no_slot"
	// ReasonNoEligible marks a slot no advertiser could enter.
	ReasonNoEligible Reason = "no_eligible"
	// ReasonBelowFloor marks a slot whose best bid missed the reserve.
	ReasonBelowFloor Reason = "below_floor"
	// ReasonBudgetExhausted marks a won slot the winner could not pay for.
	ReasonBudgetExhausted Reason = "budget_exhausted"
)

// ScoredBid is one row of the auction score breakdown, kept for
// explainability dashboards.
type ScoredBid struct {
	AdvertiserID       string  `json:"advertiser_id"`
	BidCPM             float64 `json:"bid_cpm"`
	PredictedClickRate float64 `json:"predicted_click_rate"`
	Quality            float64 `json:"quality"`
	Score              float64 `json:"score"`
	// EffectiveValue equals Score today; it is kept as its own field so
	// pricing and reporting consumers do not couple to the ranking key.
	EffectiveValue float64 `json:"effective_value"`
}

// SlotResult is the outcome of one opened slot.
type SlotResult struct {
	SlotID             string      `json:"slot_id"`
	WinnerID           string      `json:"winner_id,omitempty"`
	PriceCPM           float64     `json:"price_cpm"`
	PredictedClickRate float64     `json:"predicted_click_rate"`
	Impression         bool        `json:"impression"`
	Click              bool        `json:"click"`
	Reason             Reason      `json:"reason"`
	EligibleCount      int         `json:"eligible_count"`
	Scores             []ScoredBid `json:"scores,omitempty"`
}

// EventResult is the per-tick aggregate. Batch runs produce exactly one per
// tick; a tick that opens no slots still yields one with ReasonNoSlot.
type EventResult struct {
	Tick        int          `json:"tick"`
	SlotsOpened int          `json:"slots_opened"`
	SlotsFilled int          `json:"slots_filled"`
	Slots       []SlotResult `json:"slots,omitempty"`
	Revenue     float64      `json:"revenue"`
	Impressions int          `json:"impressions"`
	Clicks      int          `json:"clicks"`
	Reason      Reason       `json:"reason,omitempty"`

	// TopCandidates holds the best-scored bidders of the first slot of the
	// tick, for explainability.
	TopCandidates []ScoredBid `json:"top_candidates,omitempty"`
}
