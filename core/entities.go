// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package core defines the entities and run records of the ad-auction
// simulator: advertisers, slots, and the per-tick results the engine emits.
package core

// Budget is an explicit spend ceiling. "Unlimited" is a named state rather
// than an absent field, so eligibility checks never probe for nil.
type Budget struct {
	limited   bool
	remaining float64
}

// UnlimitedBudget returns a budget with no ceiling.
func UnlimitedBudget() Budget {
	return Budget{limited: false}
}

// LimitedBudget returns a budget capped at amount.
func LimitedBudget(amount float64) Budget {
	if amount < 0 {
		amount = 0
	}
	return Budget{limited: true, remaining: amount}
}

// Limited reports whether the budget has a ceiling.
func (b Budget) Limited() bool { return b.limited }

// Remaining returns the remaining spend. Meaningless for unlimited budgets.
func (b Budget) Remaining() float64 { return b.remaining }

// Positive reports whether any spend is still possible.
func (b Budget) Positive() bool {
	return !b.limited || b.remaining > 0
}

// CanAfford reports whether a charge of cost fits in the remaining budget.
func (b Budget) CanAfford(cost float64) bool {
	return !b.limited || b.remaining >= cost
}

// Charge deducts cost, flooring the remainder at 0.
func (b *Budget) Charge(cost float64) {
	if !b.limited {
		return
	}
	b.remaining -= cost
	if b.remaining < 0 {
		b.remaining = 0
	}
}

// Advertiser is a bidder in the simulated exchange.
type Advertiser struct {
	ID            string
	BidCPM        float64
	Quality       float64
	BaseClickRate float64
	Formats       []string

	// TotalBudget caps lifetime spend; DailyBudget is the pacing ceiling
	// restored by Reset.
	TotalBudget Budget
	DailyBudget Budget

	// Remaining is the mutable pacing budget for the current run.
	Remaining Budget
	Spent     float64
}

// NewAdvertiser builds an advertiser with its pacing budget primed.
func NewAdvertiser(id string, bidCPM, quality, baseClickRate float64, formats []string, total, daily Budget) *Advertiser {
	a := &Advertiser{
		ID:            id,
		BidCPM:        bidCPM,
		Quality:       quality,
		BaseClickRate: baseClickRate,
		Formats:       formats,
		TotalBudget:   total,
		DailyBudget:   daily,
	}
	a.Reset()
	return a
}

// Reset zeroes spend and restores the pacing budget, e.g. at the start of a
// new simulated day or run.
func (a *Advertiser) Reset() {
	a.Spent = 0
	a.Remaining = a.DailyBudget
}

// SupportsFormat reports whether the advertiser bids on slots of format.
func (a *Advertiser) SupportsFormat(format string) bool {
	for _, f := range a.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Eligible reports whether the advertiser can enter an auction for a slot of
// the given format: format supported and some budget left to spend.
func (a *Advertiser) Eligible(format string) bool {
	if !a.SupportsFormat(format) {
		return false
	}
	if !a.Remaining.Positive() {
		return false
	}
	if a.TotalBudget.Limited() && a.Spent >= a.TotalBudget.Remaining() {
		return false
	}
	return true
}

// CanAfford reports whether a charge of cost fits in the pacing budget.
func (a *Advertiser) CanAfford(cost float64) bool {
	return a.Remaining.CanAfford(cost)
}

// Charge records a realized spend of cost, flooring the pacing budget at 0.
func (a *Advertiser) Charge(cost float64) {
	a.Remaining.Charge(cost)
	a.Spent += cost
}

// Clone returns an independent copy with budgets re-primed. Runs clone their
// advertiser set so a config can be executed repeatedly.
func (a *Advertiser) Clone() *Advertiser {
	formats := make([]string, len(a.Formats))
	copy(formats, a.Formats)
	return NewAdvertiser(a.ID, a.BidCPM, a.Quality, a.BaseClickRate, formats, a.TotalBudget, a.DailyBudget)
}

// Slot is a sellable ad placement.
type Slot struct {
	ID          string
	Format      string
	FloorCPM    float64
	Viewability float64
}
