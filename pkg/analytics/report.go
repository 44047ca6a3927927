// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package analytics aggregates a run's event log into the summary report
// consumed by the CLI and the HTTP API. Money figures are carried as
// decimals so displayed totals round cleanly.
package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/luxfi/adsim/core"
)

// moneyPlaces is the rounding applied to reported currency amounts.
const moneyPlaces = 6

// AdvertiserReport is per-advertiser delivery and spend.
type AdvertiserReport struct {
	ID          string          `json:"id"`
	Wins        int             `json:"wins"`
	Impressions int             `json:"impressions"`
	Clicks      int             `json:"clicks"`
	Spend       decimal.Decimal `json:"spend"`
}

// Report summarizes one completed run.
type Report struct {
	Ticks       int `json:"ticks"`
	SlotsOpened int `json:"slots_opened"`
	SlotsFilled int `json:"slots_filled"`
	Impressions int `json:"impressions"`
	Clicks      int `json:"clicks"`

	Revenue decimal.Decimal `json:"revenue"`
	ECPM    decimal.Decimal `json:"ecpm"`

	ClickRate float64 `json:"click_rate"`
	FillRate  float64 `json:"fill_rate"`

	Outcomes    map[core.Reason]int `json:"outcomes"`
	Advertisers []AdvertiserReport  `json:"advertisers"`
}

// Build aggregates an event log into a report.
func Build(events []core.EventResult) *Report {
	r := &Report{Outcomes: make(map[core.Reason]int)}
	byAdvertiser := make(map[string]*AdvertiserReport)
	revenue := decimal.Zero

	for _, ev := range events {
		r.Ticks++
		r.SlotsOpened += ev.SlotsOpened
		r.SlotsFilled += ev.SlotsFilled
		r.Impressions += ev.Impressions
		r.Clicks += ev.Clicks
		if ev.SlotsOpened == 0 {
			r.Outcomes[core.ReasonNoSlot]++
			continue
		}
		for _, sr := range ev.Slots {
			r.Outcomes[sr.Reason]++
			if sr.WinnerID == "" {
				continue
			}
			ar := byAdvertiser[sr.WinnerID]
			if ar == nil {
				ar = &AdvertiserReport{ID: sr.WinnerID, Spend: decimal.Zero}
				byAdvertiser[sr.WinnerID] = ar
			}
			if sr.Reason == core.ReasonFilled {
				ar.Wins++
			}
			if sr.Impression {
				ar.Impressions++
				charge := decimal.NewFromFloat(sr.PriceCPM).Div(decimal.NewFromInt(1000))
				ar.Spend = ar.Spend.Add(charge)
				revenue = revenue.Add(charge)
			}
			if sr.Click {
				ar.Clicks++
			}
		}
	}

	r.Revenue = revenue.Round(moneyPlaces)
	if r.Impressions > 0 {
		r.ECPM = revenue.Div(decimal.NewFromInt(int64(r.Impressions))).
			Mul(decimal.NewFromInt(1000)).Round(moneyPlaces)
		r.ClickRate = float64(r.Clicks) / float64(r.Impressions)
	} else {
		r.ECPM = decimal.Zero
	}
	if r.SlotsOpened > 0 {
		r.FillRate = float64(r.SlotsFilled) / float64(r.SlotsOpened)
	}

	r.Advertisers = make([]AdvertiserReport, 0, len(byAdvertiser))
	for _, ar := range byAdvertiser {
		ar.Spend = ar.Spend.Round(moneyPlaces)
		r.Advertisers = append(r.Advertisers, *ar)
	}
	sort.Slice(r.Advertisers, func(i, j int) bool {
		return r.Advertisers[i].ID < r.Advertisers[j].ID
	})

	return r
}
