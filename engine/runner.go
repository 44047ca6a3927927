// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"errors"
	"fmt"

	"github.com/luxfi/adsim/auction"
	"github.com/luxfi/adsim/core"
	"github.com/luxfi/adsim/pkg/log"
	"github.com/luxfi/adsim/pkg/rng"
)

var (
	// ErrTickMismatch signals a batch run that produced a different event
	// count than its horizon. This is an internal-consistency defect, not
	// a recoverable condition.
	ErrTickMismatch = errors.New("event count does not match horizon")
	// ErrRunDone is returned by Step after the final tick.
	ErrRunDone = errors.New("run already complete")
)

// batchRefreshEvery is how often batch runs refresh the cached rolling
// snapshot. Interactive runs refresh every step. The cache is dashboard
// output only; decisions read the event history directly, so the two modes
// stay tick-for-tick identical.
const batchRefreshEvery = 10

// topCandidateCount bounds the explainability rows kept on the first slot
// of each tick.
const topCandidateCount = 5

// Config is the full parameterization of one simulation run.
type Config struct {
	Horizon            int
	Seed               int64
	Policy             PolicyConfig
	PricingMode        string
	FatigueStrength    float64
	BaselineNoise      float64
	ViewabilityEnabled bool
	FloorMultiplier    float64
	Regimes            Schedule
	Advertisers        []*core.Advertiser
	Slots              []core.Slot
}

// Validate fails fast on degenerate configuration rather than proceeding
// with a run whose output would be meaningless.
func (c Config) Validate() error {
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", c.Horizon)
	}
	if len(c.Advertisers) == 0 {
		return errors.New("at least one advertiser is required")
	}
	if len(c.Slots) == 0 {
		return errors.New("at least one slot is required")
	}
	if c.BaselineNoise < 0 {
		return fmt.Errorf("baseline_noise must be non-negative, got %g", c.BaselineNoise)
	}
	if c.FatigueStrength < 0 {
		return fmt.Errorf("fatigue_strength must be non-negative, got %g", c.FatigueStrength)
	}
	if c.FloorMultiplier < 0 {
		return fmt.Errorf("floor_multiplier must be non-negative, got %g", c.FloorMultiplier)
	}
	for _, a := range c.Advertisers {
		if a.BaseClickRate < 0 || a.BaseClickRate > 1 {
			return fmt.Errorf("advertiser %s: base_click_rate must be in [0,1], got %g", a.ID, a.BaseClickRate)
		}
		if a.Quality < 0 {
			return fmt.Errorf("advertiser %s: quality must be non-negative, got %g", a.ID, a.Quality)
		}
	}
	for _, s := range c.Slots {
		if s.Viewability < 0 || s.Viewability > 1 {
			return fmt.Errorf("slot %s: viewability must be in [0,1], got %g", s.ID, s.Viewability)
		}
	}
	return nil
}

// Run is one simulation in progress. It owns its SimState, its RNG stream,
// and its advertiser copies; nothing is shared between concurrent runs.
type Run struct {
	cfg         Config
	policy      Policy
	pricer      auction.Pricer
	rng         *rng.RNG
	state       *core.SimState
	advertisers []*core.Advertiser
	log         log.Logger

	refreshEvery int
	done         bool
}

// Init validates the configuration and prepares a run. Advertisers are
// cloned with budgets re-primed, so the same Config can be executed any
// number of times.
func Init(cfg Config, logger log.Logger) (*Run, error) {
	if logger == nil {
		logger = log.NoLog
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	policy, err := NewPolicy(cfg.Policy)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	pricer, err := auction.NewPricer(cfg.PricingMode)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	advertisers := make([]*core.Advertiser, len(cfg.Advertisers))
	for i, a := range cfg.Advertisers {
		advertisers[i] = a.Clone()
	}

	return &Run{
		cfg:          cfg,
		policy:       policy,
		pricer:       pricer,
		rng:          rng.New(cfg.Seed),
		state:        core.NewSimState(),
		advertisers:  advertisers,
		log:          logger,
		refreshEvery: 1,
	}, nil
}

// State exposes the run's accumulator for dashboards. Read-only by
// convention; callers must not mutate it.
func (r *Run) State() *core.SimState { return r.state }

// Advertisers exposes the run's advertiser copies, e.g. for spend
// reporting.
func (r *Run) Advertisers() []*core.Advertiser { return r.advertisers }

// Done reports whether the horizon has been reached.
func (r *Run) Done() bool { return r.done }

// Step advances the simulation one tick and returns its event. The second
// return is true once the final tick has been produced. Calling Step after
// completion returns ErrRunDone.
//
// Step performs no I/O and never blocks; an external scheduler may call it
// at arbitrary cadence.
func (r *Run) Step() (core.EventResult, bool, error) {
	if r.done {
		return core.EventResult{}, true, ErrRunDone
	}

	ev := r.tick()
	r.state.Append(ev)

	if r.state.Tick%r.refreshEvery == 0 {
		r.state.RefreshRolling()
	}
	if r.state.Tick >= r.cfg.Horizon {
		r.done = true
		r.state.RefreshRolling()
	}
	return ev, r.done, nil
}

// RunAll drives Step to completion and returns the full event log. Batch
// and interactive execution share the same per-tick function, so their
// event sequences are identical for a given config and seed.
func (r *Run) RunAll() ([]core.EventResult, error) {
	r.refreshEvery = batchRefreshEvery
	defer func() { r.refreshEvery = 1 }()

	events := make([]core.EventResult, 0, r.cfg.Horizon)
	for !r.done {
		ev, _, err := r.Step()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if len(events) != r.cfg.Horizon {
		return nil, fmt.Errorf("%w: got %d events for horizon %d", ErrTickMismatch, len(events), r.cfg.Horizon)
	}
	return events, nil
}

// RunBatch is the one-shot entry point: init, run to completion, return the
// event log.
func RunBatch(cfg Config, logger log.Logger) ([]core.EventResult, error) {
	run, err := Init(cfg, logger)
	if err != nil {
		return nil, err
	}
	return run.RunAll()
}

// tick executes one tick: pressure and fatigue from cumulative state, the
// active regime, the policy's slot count, then one auction per opened slot.
func (r *Run) tick() core.EventResult {
	t := r.state.Tick

	pressure := Pressure(r.state.TotalImpressions, t)
	fatigue := FatigueMultiplier(pressure, r.cfg.FatigueStrength)
	r.state.CurrentPressure = pressure
	r.state.CurrentFatigue = fatigue

	regime := r.cfg.Regimes.Active(t)
	floorMultiplier := r.cfg.FloorMultiplier + regime.FloorMultiplierDelta

	env := PolicyEnv{
		State:              r.state,
		HighestEligibleBid: r.highestEligibleBid(r.cfg.Slots[0].Format, regime.BidMultiplier),
	}
	count := r.policy.Decide(t, env)
	if count < 0 {
		count = 0
	}

	ev := core.EventResult{Tick: t, SlotsOpened: count}
	if count == 0 {
		ev.Reason = core.ReasonNoSlot
		return ev
	}

	for i := 0; i < count; i++ {
		slot := r.cfg.Slots[i%len(r.cfg.Slots)]
		sr := r.runSlot(slot, regime, fatigue, floorMultiplier)
		if i == 0 {
			n := len(sr.Scores)
			if n > topCandidateCount {
				n = topCandidateCount
			}
			ev.TopCandidates = append([]core.ScoredBid(nil), sr.Scores[:n]...)
		}
		if sr.Reason == core.ReasonFilled {
			ev.SlotsFilled++
		}
		if sr.Impression {
			ev.Impressions++
			ev.Revenue += sr.PriceCPM / 1000
		}
		if sr.Click {
			ev.Clicks++
		}
		ev.Slots = append(ev.Slots, sr)
	}
	return ev
}

// runSlot auctions a single slot and realizes the outcome: pricing, budget
// check, viewability and click draws, and the winner's charge.
func (r *Run) runSlot(slot core.Slot, regime Regime, fatigue, floorMultiplier float64) core.SlotResult {
	predict := func(a *core.Advertiser) float64 {
		noise := Noise(r.rng, r.cfg.BaselineNoise)
		return PredictClickRate(a, slot, regime.ClickRateMultiplier, fatigue, noise, r.cfg.ViewabilityEnabled)
	}
	effectiveBid := func(a *core.Advertiser) float64 {
		return a.BidCPM * regime.BidMultiplier
	}
	floorCPM := slot.FloorCPM * floorMultiplier

	out := auction.Run(r.advertisers, slot, predict, effectiveBid, floorCPM, r.log)

	sr := core.SlotResult{
		SlotID:        slot.ID,
		Reason:        out.Reason,
		EligibleCount: out.EligibleCount,
		Scores:        out.Scores,
	}
	if out.Winner == nil {
		return sr
	}

	price, err := r.pricer.Price(out, floorCPM)
	if err != nil {
		// Unreachable with a non-nil winner; recorded rather than dropped.
		r.log.Error("pricing failed", "slot", slot.ID, "error", err)
		sr.Reason = core.ReasonNoEligible
		return sr
	}

	winner := out.Winner.Advertiser
	cost := price / 1000

	sr.WinnerID = winner.ID
	sr.PriceCPM = price
	sr.PredictedClickRate = out.Winner.PredictedClickRate

	if !winner.CanAfford(cost) {
		// The attempt is recorded, but nothing is realized: no spend, no
		// impression draw.
		sr.Reason = core.ReasonBudgetExhausted
		return sr
	}

	sr.Impression = r.rng.Bernoulli(slot.Viewability)
	if sr.Impression {
		sr.Click = r.rng.Bernoulli(sr.PredictedClickRate)
		winner.Charge(cost)
	}
	return sr
}

// highestEligibleBid returns the best effective bid an eligible advertiser
// would enter for the given format this tick, or 0 with none eligible.
func (r *Run) highestEligibleBid(format string, bidMultiplier float64) float64 {
	best := 0.0
	for _, a := range r.advertisers {
		if !a.Eligible(format) {
			continue
		}
		if bid := a.BidCPM * bidMultiplier; bid > best {
			best = bid
		}
	}
	return best
}
