// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/adsim/core"
)

func TestBuildAggregatesEvents(t *testing.T) {
	require := require.New(t)

	events := []core.EventResult{
		{
			Tick: 0, SlotsOpened: 1, SlotsFilled: 1, Impressions: 1, Clicks: 1, Revenue: 0.01,
			Slots: []core.SlotResult{{
				SlotID: "top", WinnerID: "acme", PriceCPM: 10,
				Impression: true, Click: true, Reason: core.ReasonFilled,
			}},
		},
		{
			Tick: 1, SlotsOpened: 1, SlotsFilled: 1, Impressions: 1, Revenue: 0.01,
			Slots: []core.SlotResult{{
				SlotID: "top", WinnerID: "acme", PriceCPM: 10,
				Impression: true, Reason: core.ReasonFilled,
			}},
		},
		{Tick: 2, SlotsOpened: 0, Reason: core.ReasonNoSlot},
		{
			Tick: 3, SlotsOpened: 1,
			Slots: []core.SlotResult{{SlotID: "top", Reason: core.ReasonBelowFloor}},
		},
	}

	r := Build(events)
	require.Equal(4, r.Ticks)
	require.Equal(3, r.SlotsOpened)
	require.Equal(2, r.SlotsFilled)
	require.Equal(2, r.Impressions)
	require.Equal(1, r.Clicks)

	require.True(r.Revenue.Equal(decimal.RequireFromString("0.02")), "revenue = %s", r.Revenue)
	require.True(r.ECPM.Equal(decimal.RequireFromString("10")), "ecpm = %s", r.ECPM)
	require.InDelta(0.5, r.ClickRate, 1e-12)
	require.InDelta(2.0/3, r.FillRate, 1e-12)

	require.Equal(2, r.Outcomes[core.ReasonFilled])
	require.Equal(1, r.Outcomes[core.ReasonNoSlot])
	require.Equal(1, r.Outcomes[core.ReasonBelowFloor])

	require.Len(r.Advertisers, 1)
	acme := r.Advertisers[0]
	require.Equal("acme", acme.ID)
	require.Equal(2, acme.Wins)
	require.Equal(2, acme.Impressions)
	require.Equal(1, acme.Clicks)
	require.True(acme.Spend.Equal(decimal.RequireFromString("0.02")), "spend = %s", acme.Spend)
}

func TestBuildEmptyRun(t *testing.T) {
	require := require.New(t)

	r := Build(nil)
	require.Equal(0, r.Ticks)
	require.True(r.Revenue.IsZero())
	require.True(r.ECPM.IsZero())
	require.Empty(r.Advertisers)
}

func TestBuildBudgetExhaustedAttemptNotCharged(t *testing.T) {
	require := require.New(t)

	events := []core.EventResult{{
		Tick: 0, SlotsOpened: 1,
		Slots: []core.SlotResult{{
			SlotID: "top", WinnerID: "acme", PriceCPM: 10,
			Reason: core.ReasonBudgetExhausted,
		}},
	}}

	r := Build(events)
	require.Equal(1, r.Outcomes[core.ReasonBudgetExhausted])
	require.True(r.Revenue.IsZero())
	require.Len(r.Advertisers, 1)
	require.Equal(0, r.Advertisers[0].Wins)
	require.True(r.Advertisers[0].Spend.IsZero())
}

func TestAdvertisersSortedByID(t *testing.T) {
	require := require.New(t)

	events := []core.EventResult{{
		Tick: 0, SlotsOpened: 2, SlotsFilled: 2, Impressions: 2, Revenue: 0.011,
		Slots: []core.SlotResult{
			{SlotID: "a", WinnerID: "zeta", PriceCPM: 5, Impression: true, Reason: core.ReasonFilled},
			{SlotID: "b", WinnerID: "alpha", PriceCPM: 6, Impression: true, Reason: core.ReasonFilled},
		},
	}}

	r := Build(events)
	require.Len(r.Advertisers, 2)
	require.Equal("alpha", r.Advertisers[0].ID)
	require.Equal("zeta", r.Advertisers[1].ID)
}
