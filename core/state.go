// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

// DefaultWindow is the trailing window, in ticks, over which rolling
// aggregates are computed.
const DefaultWindow = 100

// TrailingStats are aggregates over the last N events. They are computed on
// demand from the event history, so decisions based on them are identical in
// batch and interactive execution.
type TrailingStats struct {
	Ticks       int
	SlotsOpened int
	SlotsFilled int
	Impressions int
	Clicks      int
	Revenue     float64
}

// ECPM returns trailing revenue per thousand impressions, or 0 with no
// impressions.
func (t TrailingStats) ECPM() float64 {
	if t.Impressions == 0 {
		return 0
	}
	return t.Revenue / float64(t.Impressions) * 1000
}

// ClickRate returns trailing clicks per impression.
func (t TrailingStats) ClickRate() float64 {
	if t.Impressions == 0 {
		return 0
	}
	return float64(t.Clicks) / float64(t.Impressions)
}

// FillRate returns trailing filled slots per opened slot.
func (t TrailingStats) FillRate() float64 {
	if t.SlotsOpened == 0 {
		return 0
	}
	return float64(t.SlotsFilled) / float64(t.SlotsOpened)
}

// Pressure returns trailing impressions per tick.
func (t TrailingStats) Pressure() float64 {
	if t.Ticks == 0 {
		return 0
	}
	return float64(t.Impressions) / float64(t.Ticks)
}

// RevenuePerFilledSlot returns trailing revenue per filled slot.
func (t TrailingStats) RevenuePerFilledSlot() float64 {
	if t.SlotsFilled == 0 {
		return 0
	}
	return t.Revenue / float64(t.SlotsFilled)
}

// Rolling is the cached dashboard snapshot of the trailing window. It is
// refreshed periodically by the runner and never feeds back into decisions.
type Rolling struct {
	Revenue   float64 `json:"revenue"`
	ClickRate float64 `json:"click_rate"`
	FillRate  float64 `json:"fill_rate"`
	Pressure  float64 `json:"pressure"`
}

// SimState is the mutable run-wide accumulator. It is owned exclusively by
// one runner; concurrent runs each hold their own instance.
type SimState struct {
	Tick             int
	TotalRevenue     float64
	TotalImpressions int
	TotalClicks      int
	TotalFilled      int
	TotalSlotsOpened int
	Events           []EventResult

	// CurrentPressure and CurrentFatigue are the snapshot computed at the
	// top of the most recent tick.
	CurrentPressure float64
	CurrentFatigue  float64

	rolling Rolling
	window  int
}

// NewSimState returns an empty accumulator using the default trailing
// window.
func NewSimState() *SimState {
	return &SimState{window: DefaultWindow}
}

// Window returns the trailing window length in ticks.
func (s *SimState) Window() int { return s.window }

// Append records one tick's event and advances the counters.
func (s *SimState) Append(ev EventResult) {
	s.Events = append(s.Events, ev)
	s.Tick++
	s.TotalRevenue += ev.Revenue
	s.TotalImpressions += ev.Impressions
	s.TotalClicks += ev.Clicks
	s.TotalFilled += ev.SlotsFilled
	s.TotalSlotsOpened += ev.SlotsOpened
}

// Trailing computes aggregates over the last window events. A window of 0
// uses the state's configured window.
func (s *SimState) Trailing(window int) TrailingStats {
	if window <= 0 {
		window = s.window
	}
	start := len(s.Events) - window
	if start < 0 {
		start = 0
	}
	var t TrailingStats
	for _, ev := range s.Events[start:] {
		t.Ticks++
		t.SlotsOpened += ev.SlotsOpened
		t.SlotsFilled += ev.SlotsFilled
		t.Impressions += ev.Impressions
		t.Clicks += ev.Clicks
		t.Revenue += ev.Revenue
	}
	return t
}

// RefreshRolling recomputes the cached rolling snapshot.
func (s *SimState) RefreshRolling() {
	t := s.Trailing(0)
	avgRevenue := 0.0
	if t.Ticks > 0 {
		avgRevenue = t.Revenue / float64(t.Ticks)
	}
	s.rolling = Rolling{
		Revenue:   avgRevenue,
		ClickRate: t.ClickRate(),
		FillRate:  t.FillRate(),
		Pressure:  t.Pressure(),
	}
}

// RollingSnapshot returns the cached rolling aggregates.
func (s *SimState) RollingSnapshot() Rolling { return s.rolling }
