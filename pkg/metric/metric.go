// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luxfi/adsim/core"
)

// Metrics holds all prometheus metrics exported by the simulation server.
type Metrics struct {
	registry *prometheus.Registry

	// Run metrics
	TicksProcessed prometheus.Counter
	RunsStarted    prometheus.Counter
	RunsCompleted  prometheus.Counter

	// Auction metrics
	SlotsOpened  prometheus.Counter
	SlotsFilled  prometheus.Counter
	SlotOutcomes *prometheus.CounterVec

	// Delivery metrics
	Impressions prometheus.Counter
	Clicks      prometheus.Counter
	Revenue     prometheus.Counter

	// Price distribution
	ClearingPrice prometheus.Histogram
}

// New creates a metrics instance on its own registry.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
		registry.MustRegister(c)
		return c
	}

	m := &Metrics{registry: registry}

	m.TicksProcessed = factory("ticks_processed_total", "Total simulation ticks processed")
	m.RunsStarted = factory("runs_started_total", "Total simulation runs started")
	m.RunsCompleted = factory("runs_completed_total", "Total simulation runs completed")
	m.SlotsOpened = factory("slots_opened_total", "Total slots opened by placement policies")
	m.SlotsFilled = factory("slots_filled_total", "Total slots filled by auctions")
	m.Impressions = factory("impressions_total", "Total realized impressions")
	m.Clicks = factory("clicks_total", "Total realized clicks")
	m.Revenue = factory("revenue_total", "Total revenue charged to winners")

	m.SlotOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slot_outcomes_total",
		Help:      "Slot outcomes by reason",
	}, []string{"reason"})
	registry.MustRegister(m.SlotOutcomes)

	m.ClearingPrice = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "clearing_price_cpm",
		Help:      "Distribution of clearing prices (CPM)",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})
	registry.MustRegister(m.ClearingPrice)

	return m
}

// ObserveEvent folds one tick's event into the counters.
func (m *Metrics) ObserveEvent(ev core.EventResult) {
	m.TicksProcessed.Inc()
	m.SlotsOpened.Add(float64(ev.SlotsOpened))
	m.SlotsFilled.Add(float64(ev.SlotsFilled))
	m.Impressions.Add(float64(ev.Impressions))
	m.Clicks.Add(float64(ev.Clicks))
	m.Revenue.Add(ev.Revenue)
	if ev.SlotsOpened == 0 {
		m.SlotOutcomes.WithLabelValues(string(core.ReasonNoSlot)).Inc()
		return
	}
	for _, sr := range ev.Slots {
		m.SlotOutcomes.WithLabelValues(string(sr.Reason)).Inc()
		if sr.Reason == core.ReasonFilled {
			m.ClearingPrice.Observe(sr.PriceCPM)
		}
	}
}

// Handler returns the HTTP handler exporting the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
