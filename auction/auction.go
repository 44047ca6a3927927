// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package auction implements the per-slot auction mechanism and the pricing
// strategies that convert an auction outcome into a clearing price.
package auction

import (
	"sort"

	"github.com/luxfi/adsim/core"
	"github.com/luxfi/adsim/pkg/log"
)

// Candidate is one scored eligible bidder.
type Candidate struct {
	Advertiser         *core.Advertiser
	EffectiveBidCPM    float64
	PredictedClickRate float64
	Score              float64
}

// Outcome is the result of running one slot's auction.
type Outcome struct {
	// Winner is nil when the slot went unfilled; Reason says why.
	Winner *Candidate
	// SecondBestScore is the runner-up score, 0 with a single eligible
	// bidder. Second-price-style pricing derives the charge from it.
	SecondBestScore float64
	Scores          []core.ScoredBid
	EligibleCount   int
	Reason          core.Reason
}

// PredictFn computes the predicted click rate for one eligible advertiser.
// It is called exactly once per eligible bidder, in input order, so any
// noise it draws from the run's RNG stays reproducible.
type PredictFn func(*core.Advertiser) float64

// EffectiveBidFn derives the bid entered into this auction. Regime
// multipliers are applied here as a derived value; advertiser state is
// never mutated mid-auction.
type EffectiveBidFn func(*core.Advertiser) float64

// Run executes a single-slot auction.
//
// Eligibility requires a matching format and a positive remaining budget.
// Each eligible bidder is scored as effectiveBid x predictedClickRate x
// quality and the candidates are ordered by descending score with a stable
// sort, so exactly tied scores resolve to the earlier bidder in input
// order. The floor check compares the winner's raw effective bid (not its
// score) against floorCPM, keeping the floor a pure reserve-price
// mechanism.
func Run(advertisers []*core.Advertiser, slot core.Slot, predict PredictFn, effectiveBid EffectiveBidFn, floorCPM float64, logger log.Logger) Outcome {
	candidates := make([]Candidate, 0, len(advertisers))
	for _, adv := range advertisers {
		if !adv.Eligible(slot.Format) {
			continue
		}
		bid := effectiveBid(adv)
		pcr := predict(adv)
		candidates = append(candidates, Candidate{
			Advertiser:         adv,
			EffectiveBidCPM:    bid,
			PredictedClickRate: pcr,
			Score:              bid * pcr * adv.Quality,
		})
	}

	out := Outcome{EligibleCount: len(candidates)}
	if len(candidates) == 0 {
		out.Reason = core.ReasonNoEligible
		return out
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	out.Scores = make([]core.ScoredBid, len(candidates))
	for i, c := range candidates {
		out.Scores[i] = core.ScoredBid{
			AdvertiserID:       c.Advertiser.ID,
			BidCPM:             c.EffectiveBidCPM,
			PredictedClickRate: c.PredictedClickRate,
			Quality:            c.Advertiser.Quality,
			Score:              c.Score,
			EffectiveValue:     c.Score,
		}
	}

	best := candidates[0]
	if best.EffectiveBidCPM < floorCPM {
		out.Reason = core.ReasonBelowFloor
		logger.Debug("best bid below floor",
			"slot", slot.ID,
			"bid", best.EffectiveBidCPM,
			"floor", floorCPM)
		return out
	}

	out.Winner = &best
	out.Reason = core.ReasonFilled
	if len(candidates) > 1 {
		out.SecondBestScore = candidates[1].Score
	}

	logger.Debug("auction completed",
		"slot", slot.ID,
		"winner", best.Advertiser.ID,
		"score", best.Score,
		"eligible", len(candidates))

	return out
}
